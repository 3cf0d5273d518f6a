package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/drawdown/internal/cli"
	"github.com/theirongolddev/drawdown/internal/config"
	"github.com/theirongolddev/drawdown/internal/daemon"
)

var (
	flagServeAddr         string
	flagServeInterval     time.Duration
	flagServeDetach       bool
	flagServePIDFile      string
	flagServeLogFile      string
	flagServeEventsBuffer int
	flagServeChild        bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Re-run allocation on an interval and serve results over HTTP/SSE",
	RunE:  runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the service is running and its last pass",
	RunE:  runServeStatus,
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running service",
	RunE:  runServeStop,
}

func init() {
	pf := serveCmd.PersistentFlags()
	pf.StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	pf.DurationVar(&flagServeInterval, "interval", 0, "Polling interval (default from config)")
	pf.StringVar(&flagServePIDFile, "pid-file", filepath.Join(config.DataDir(), "drawdown.pid"), "PID file path")
	pf.StringVar(&flagServeLogFile, "log-file", filepath.Join(config.DataDir(), "drawdown.log"), "Log file for detached mode")
	pf.IntVar(&flagServeEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default from config)")

	serveCmd.Flags().BoolVar(&flagServeDetach, "detach", false, "Run as a background process")
	serveCmd.Flags().BoolVar(&flagServeChild, "child", false, "Internal: mark detached child process")
	_ = serveCmd.Flags().MarkHidden("child")

	serveCmd.AddCommand(serveStatusCmd, serveStopCmd)
	rootCmd.AddCommand(serveCmd)
}

// serveConfig merges serve flags over the [serve] config section.
func serveConfig() daemon.Config {
	dc := daemon.Config{
		Source:       cfg.Source.Kind,
		Addr:         cfg.Serve.Addr,
		Interval:     time.Duration(cfg.Serve.IntervalSec) * time.Second,
		EventsBuffer: cfg.Serve.EventsBuffer,
	}
	if flagServeAddr != "" {
		dc.Addr = flagServeAddr
	}
	if flagServeInterval > 0 {
		dc.Interval = flagServeInterval
	}
	if flagServeEventsBuffer > 0 {
		dc.EventsBuffer = flagServeEventsBuffer
	}
	return dc
}

// serviceInfo is written next to the pid file so `serve status` can find the
// listen address of a running instance.
type serviceInfo struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source"`
}

// serviceFiles manages the pid file and its sidecar info file.
type serviceFiles struct {
	pidPath string
}

func (f serviceFiles) infoPath() string { return f.pidPath + ".json" }

func (f serviceFiles) readPID() (int, error) {
	data, err := os.ReadFile(f.pidPath) //nolint:gosec // pid path is configured by the local user
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", f.pidPath)
	}
	return pid, nil
}

func (f serviceFiles) write(info serviceInfo) error {
	if err := os.MkdirAll(filepath.Dir(f.pidPath), 0o750); err != nil {
		return fmt.Errorf("create service directory: %w", err)
	}
	if err := os.WriteFile(f.pidPath, []byte(strconv.Itoa(info.PID)+"\n"), 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.infoPath(), append(data, '\n'), 0o600)
}

func (f serviceFiles) readInfo() (serviceInfo, error) {
	var info serviceInfo
	data, err := os.ReadFile(f.infoPath()) //nolint:gosec // path derives from the pid path
	if err != nil {
		return info, err
	}
	err = json.Unmarshal(data, &info)
	return info, err
}

func (f serviceFiles) remove() {
	_ = os.Remove(f.pidPath)
	_ = os.Remove(f.infoPath())
}

// claim fails when a live process owns the pid file and clears stale files.
func (f serviceFiles) claim() error {
	pid, err := f.readPID()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case processAlive(pid):
		return fmt.Errorf("service already running (pid %d)", pid)
	}
	f.remove()
	return nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func runServe(_ *cobra.Command, _ []string) error {
	files := serviceFiles{pidPath: flagServePIDFile}
	switch {
	case flagServeDetach && flagServeChild:
		return errors.New("invalid serve launch mode")
	case flagServeDetach:
		return startDetached(files)
	default:
		return serveForeground(files)
	}
}

// startDetached re-executes the current command line as a background child.
func startDetached(files serviceFiles) error {
	if err := files.claim(); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagServeLogFile), 0o750); err != nil {
		return fmt.Errorf("create service log directory: %w", err)
	}
	logf, err := os.OpenFile(flagServeLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600) //nolint:gosec // user-configured path
	if err != nil {
		return fmt.Errorf("open service log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, append(filterDetachArg(os.Args[1:]), "--child")...) //nolint:gosec // re-exec of self
	child.Stdout, child.Stderr = logf, logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached service: %w", err)
	}

	fmt.Printf("  Started drawdown serve (pid %d)\n", child.Process.Pid)
	fmt.Printf("  PID file: %s\n", files.pidPath)
	fmt.Printf("  API: http://%s/v1/status\n", serveConfig().Addr)
	fmt.Printf("  Log: %s\n", flagServeLogFile)
	return nil
}

func serveForeground(files serviceFiles) error {
	if err := files.claim(); err != nil {
		return err
	}

	dc := serveConfig()
	f, closeFn, err := newFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, err := daemon.New(dc, newStore(), f, logger.With().Str("component", "daemon").Logger(), reg)
	if err != nil {
		return err
	}

	if err := files.write(serviceInfo{PID: os.Getpid(), Addr: dc.Addr, StartedAt: time.Now(), Source: dc.Source}); err != nil {
		return err
	}
	defer files.remove()

	fmt.Printf("  drawdown listening on http://%s\n", dc.Addr)
	fmt.Printf("  Processing draws from %s\n", dc.Source)
	fmt.Printf("  Stop with: drawdown serve stop --pid-file %s\n", files.pidPath)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeStatus(_ *cobra.Command, _ []string) error {
	files := serviceFiles{pidPath: flagServePIDFile}
	pid, err := files.readPID()
	if err != nil {
		fmt.Println("  Service: not running (pid file not found)")
		return nil
	}
	if !processAlive(pid) {
		fmt.Printf("  Service: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := serveConfig().Addr
	if info, err := files.readInfo(); err == nil && info.Addr != "" {
		addr = info.Addr
	}
	fmt.Printf("  Service PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	st, err := fetchStatus(addr)
	if err != nil {
		fmt.Printf("  API status: %v\n", err)
		return nil
	}

	lastPoll := "pending"
	if !st.LastPollAt.IsZero() {
		lastPoll = st.LastPollAt.Local().Format(time.RFC3339)
	}
	fmt.Printf("  Last poll: %s (%d total)\n", lastPoll, st.PollCount)
	fmt.Printf("  Source: %s\n", st.Source)
	fmt.Printf("  Accepted: %d (%s)\n", st.Summary.Accepted, cli.FormatAmount(st.Summary.AcceptedAmount))
	fmt.Printf("  Rejected: %d\n", st.Summary.Rejected)
	fmt.Printf("  Balance remaining: %s\n", cli.FormatAmount(st.Summary.BalanceRemaining))
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func fetchStatus(addr string) (daemon.Status, error) {
	var st daemon.Status

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("unreachable (%w)", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response (%w)", err)
	}
	return st, nil
}

func runServeStop(_ *cobra.Command, _ []string) error {
	files := serviceFiles{pidPath: flagServePIDFile}
	pid, err := files.readPID()
	if err != nil {
		return errors.New("service is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find service process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal service process: %w", err)
	}

	for deadline := time.Now().Add(8 * time.Second); time.Now().Before(deadline); time.Sleep(150 * time.Millisecond) {
		if !processAlive(pid) {
			files.remove()
			fmt.Printf("  Stopped service (pid %d)\n", pid)
			return nil
		}
	}
	return fmt.Errorf("service (pid %d) did not exit in time", pid)
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a != "--detach" && !strings.HasPrefix(a, "--detach=") {
			out = append(out, a)
		}
	}
	return out
}
