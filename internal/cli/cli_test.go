package cli

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartoza/plasma-dashboard/internal/models"
	"github.com/kartoza/plasma-dashboard/internal/store"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	for _, k := range []string{"PORT", "DATA_DIR", "STORE", "DB_DRIVER", "MEMORY_CAPACITY"} {
		t.Setenv("PLASMA_DASHBOARD_"+k, "")
	}
	xdg.Reload()
	t.Cleanup(xdg.Reload)
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd("test")
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "version test")
}

func TestPredictJSON(t *testing.T) {
	isolate(t)

	out, _, err := run(t, "predict", "--rf-power", "1900", "--pressure", "5", "--chamber-hours", "480", "--seed", "3", "--format", "json")
	require.NoError(t, err)

	var r models.PredictionResult
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, models.StatusDanger, r.Status)
	assert.Equal(t, 1900.0, r.Parameters.RFPower)
	require.NotEmpty(t, r.Recommendations)
	assert.Equal(t, "pressure", r.Recommendations[0].Parameter)
}

func TestPredictSeedIsReproducible(t *testing.T) {
	isolate(t)

	a, _, err := run(t, "predict", "--seed", "9", "--format", "json")
	require.NoError(t, err)
	b, _, err := run(t, "predict", "--seed", "9", "--format", "json")
	require.NoError(t, err)

	var ra, rb models.PredictionResult
	require.NoError(t, json.Unmarshal([]byte(a), &ra))
	require.NoError(t, json.Unmarshal([]byte(b), &rb))
	assert.Equal(t, ra.QualityMetrics, rb.QualityMetrics)
	assert.Equal(t, ra.RadicalDistribution.Grid, rb.RadicalDistribution.Grid)
	assert.NotEqual(t, ra.ID, rb.ID)
}

func TestPredictText(t *testing.T) {
	isolate(t)

	out, _, err := run(t, "predict", "--rf-power", "200", "--pressure", "50", "--ar", "0", "--pulse", "--seed", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "Status:")
	assert.Contains(t, out, "safe")
	assert.Contains(t, out, "Batch profit:")
	assert.NotContains(t, out, "Recommendations:")
}

func TestPredictRejectsInvalidParameters(t *testing.T) {
	isolate(t)

	_, stderr, err := run(t, "predict", "--rf-power", "5")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidParameters)
	assert.Contains(t, stderr, "rfPower")
}

func TestPredictRejectsUnknownFormat(t *testing.T) {
	isolate(t)

	_, _, err := run(t, "predict", "--format", "yaml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestHistoryLifecycle(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	backend := []string{"--store", "file", "--data-dir", dir}

	out, _, err := run(t, append([]string{"predict", "--save", "--seed", "2", "--format", "json"}, backend...)...)
	require.NoError(t, err)
	var saved models.PredictionResult
	require.NoError(t, json.Unmarshal([]byte(out), &saved))

	out, _, err = run(t, append([]string{"history", "list", "--format", "json"}, backend...)...)
	require.NoError(t, err)
	var rows []historyRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, saved.ID, rows[0].ID)

	out, _, err = run(t, append([]string{"history", "list"}, backend...)...)
	require.NoError(t, err)
	assert.Contains(t, out, saved.ID)
	assert.Contains(t, out, "STATUS")

	out, _, err = run(t, append([]string{"history", "get", saved.ID}, backend...)...)
	require.NoError(t, err)
	var got models.PredictionResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, saved.QualityMetrics, got.QualityMetrics)

	out, _, err = run(t, append([]string{"history", "rm", saved.ID}, backend...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted "+saved.ID)

	_, _, err = run(t, append([]string{"history", "get", saved.ID}, backend...)...)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, _, err = run(t, append([]string{"history", "clear"}, backend...)...)
	assert.NoError(t, err)
}

func TestHistoryFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("PLASMA_DASHBOARD_STORE", "sqlite")
	t.Setenv("PLASMA_DASHBOARD_DATA_DIR", t.TempDir())

	_, _, err := run(t, "predict", "--save", "--rf-power", "1900", "--pressure", "5", "--seed", "4")
	require.NoError(t, err)
	_, _, err = run(t, "predict", "--save", "--seed", "5")
	require.NoError(t, err)

	out, _, err := run(t, "history", "list", "--status", "danger", "--format", "json")
	require.NoError(t, err)
	var rows []historyRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.NotEmpty(t, rows)
	for _, r := range rows {
		assert.Equal(t, models.StatusDanger, r.Status)
	}

	// flags win over the environment
	out, _, err = run(t, "history", "list", "--format", "json", "--data-dir", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestHistoryNeedsPersistentBackend(t *testing.T) {
	isolate(t)

	_, _, err := run(t, "history", "list")
	assert.ErrorContains(t, err, "persistent backend")

	_, _, err = run(t, "history", "list", "--store", "file", "--data-dir", t.TempDir(), "--status", "bad")
	assert.ErrorContains(t, err, "unknown status")
}

func TestInvalidConfiguration(t *testing.T) {
	isolate(t)

	_, _, err := run(t, "history", "list", "--store", "redis")
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestFindAvailablePort(t *testing.T) {
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer l.Close()
	busy := l.Addr().(*net.TCPAddr).Port

	port, err := findAvailablePort(busy, 10)
	require.NoError(t, err)
	assert.Greater(t, port, busy)
}

func TestWaitForServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	assert.True(t, waitForServer(srv.URL, time.Second))
}
