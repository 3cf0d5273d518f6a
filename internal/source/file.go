package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/drawdown/internal/model"
)

// File reads the budget and draw requests from JSON or YAML files.
// The format is picked from the extension; anything but .yaml/.yml is JSON.
type File struct {
	BudgetPath string
	DrawsPath  string
}

// GetBudget reads and decodes BudgetPath.
func (f File) GetBudget(_ context.Context) (*model.Budget, error) {
	data, err := ReadPayload(f.BudgetPath)
	if err != nil {
		return nil, err
	}
	b, err := DecodeBudget(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.BudgetPath, err)
	}
	return b, nil
}

// GetDrawRequests reads and decodes DrawsPath.
func (f File) GetDrawRequests(_ context.Context) ([]model.DrawRequest, error) {
	data, err := ReadPayload(f.DrawsPath)
	if err != nil {
		return nil, err
	}
	reqs, err := DecodeDrawRequests(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.DrawsPath, err)
	}
	return reqs, nil
}

// ReadPayload reads path and returns its content as JSON, converting YAML input.
func ReadPayload(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("source: no file path configured")
	}
	//nolint:gosec // input path is chosen by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlToJSON(data)
	default:
		return data, nil
	}
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, malformed("yaml: %v", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, malformed("yaml: %v", err)
	}
	return out, nil
}
