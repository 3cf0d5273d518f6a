package cmd

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/drawdown/internal/api"
	"github.com/theirongolddev/drawdown/internal/config"
	"github.com/theirongolddev/drawdown/internal/model"
	"github.com/theirongolddev/drawdown/internal/source"
	"github.com/theirongolddev/drawdown/internal/store"
)

func TestNewFetcher(t *testing.T) {
	c := config.DefaultConfig()

	f, closeFn, err := newFetcher(c, zerolog.Nop())
	require.NoError(t, err)
	closeFn()
	assert.IsType(t, source.Fixture{}, f)

	c.Source.Kind = config.SourceFile
	_, _, err = newFetcher(c, zerolog.Nop())
	assert.Error(t, err, "file source without paths")

	c.Source.BudgetFile, c.Source.DrawsFile = "b.json", "d.yaml"
	f, _, err = newFetcher(c, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, source.File{BudgetPath: "b.json", DrawsPath: "d.yaml"}, f)

	c.Source.Kind = config.SourceAPI
	c.Source.APIURL = "not a url"
	_, _, err = newFetcher(c, zerolog.Nop())
	assert.Error(t, err)

	c.Source.APIURL = "https://budgets.example.com"
	f, _, err = newFetcher(c, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &api.Client{}, f)

	c.Source.Kind = config.SourceSQLite
	c.Source.DBPath = t.TempDir() + "/drawdown.db"
	f, closeFn, err = newFetcher(c, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &store.DB{}, f)
	closeFn()

	c.Source.Kind = "pigeon"
	_, _, err = newFetcher(c, zerolog.Nop())
	assert.Error(t, err)
}

func TestFilterOutcomes(t *testing.T) {
	all := []model.Outcome{
		{Order: 1, DrawID: model.Ptr(10.0)},
		{Order: 2, DrawID: model.Ptr(3.0), Accepted: true},
		{Order: 3},
	}

	assert.Len(t, filterOutcomes(all, false, 0), 3)
	assert.Len(t, filterOutcomes(all, false, 2), 2)

	rejected := filterOutcomes(all, true, 0)
	require.Len(t, rejected, 2)
	assert.Equal(t, model.Ptr(10.0), rejected[0].DrawID)
	assert.Nil(t, rejected[1].DrawID)
}

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"serve", "--detach", "--addr", ":9000", "--detach=true"})
	assert.Equal(t, []string{"serve", "--addr", ":9000"}, got)
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, newLogger("debug", false).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, newLogger("bogus", false).GetLevel())
	assert.Equal(t, zerolog.WarnLevel, newLogger("info", true).GetLevel())
	assert.Equal(t, zerolog.ErrorLevel, newLogger("error", true).GetLevel())
}
