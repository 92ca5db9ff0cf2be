package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amritha902/infocruxapp/internal/flow"
	"github.com/Amritha902/infocruxapp/internal/monitor"
	"github.com/Amritha902/infocruxapp/internal/search"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	missing := filepath.Join(t.TempDir(), "config.yaml")
	root.SetArgs(append([]string{"--config", missing}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInitializeAppDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	app, err := initializeApp(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.Store)
	assert.NotNil(t, app.Analyst)
	assert.NotNil(t, app.News)
	assert.NotNil(t, app.Monitor)

	_, err = app.Analyst.SummarizeAnnouncement(context.Background(), "Board approves a buyback.")
	assert.ErrorIs(t, err, flow.ErrGenerationFailed)
}

func TestSearchCommand(t *testing.T) {
	out, err := run(t, "", "search", "reliance")
	require.NoError(t, err)

	var res search.Results
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotEmpty(t, res.Stocks)
	assert.Equal(t, "RELIANCE.NS", res.Stocks[0].Symbol)
}

func TestMonitorCommand(t *testing.T) {
	out, err := run(t, "", "monitor")
	require.NoError(t, err)

	var report monitor.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.HighRisk)
	require.Len(t, report.Alerts, 1)
	assert.Equal(t, "RELIANCE.NS", report.Alerts[0].Symbol)
}

func TestExplainCommandWithoutProvider(t *testing.T) {
	_, err := run(t, "", "explain", "reliance")
	assert.ErrorIs(t, err, flow.ErrGenerationFailed)

	_, err = run(t, "", "explain", "WIPRO")
	assert.ErrorContains(t, err, "pass --score")
}

func TestSummarizeCommandRequiresText(t *testing.T) {
	_, err := run(t, "", "summarize")
	assert.ErrorContains(t, err, "required")
}

func TestInteractiveChatReportsErrorsAndExits(t *testing.T) {
	out, err := run(t, "What is a P/E ratio?\n\nexit\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Infocrux chat.")
	assert.Contains(t, out, "error: ")
}
