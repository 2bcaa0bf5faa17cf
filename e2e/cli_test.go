package e2e_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessgraph/chessgraph/internal/api"
	"github.com/chessgraph/chessgraph/internal/cli"
	"github.com/chessgraph/chessgraph/internal/factory"
	"github.com/chessgraph/chessgraph/internal/testutil"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "chessgraph-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/chessgraph")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) (*testServer, *testutil.StubProvider) {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	provider := testutil.NewStubProvider(t)
	provider.AddPlayer("magnuscarlsen",
		testutil.Game("magnuscarlsen", "hikaru", 1700000000),
	)
	provider.AddPlayer("hikaru",
		testutil.Game("magnuscarlsen", "hikaru", 1700000000),
	)

	app := factory.NewTestApp(provider.URL())

	router := api.NewRouter(api.RouterConfig{
		Logger:  testutil.NopLogger(),
		Manager: app.Manager,
		Store:   app.Store,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		addr: serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		},
	}, provider
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready")
}

func TestCLIEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	server, _ := startTestServer(t)
	defer server.shutdown()

	runner := newCLIRunner(t, server.addr)

	t.Run("health", func(t *testing.T) {
		output, err := runner.run("health")
		require.NoError(t, err, output)

		var health cli.HealthResult
		require.NoError(t, json.Unmarshal([]byte(output), &health))
		assert.Equal(t, "ok", health.Status)
	})

	t.Run("historical ingestion", func(t *testing.T) {
		output, err := runner.run("historical")
		require.NoError(t, err, output)

		var summary cli.HistoricalSummary
		require.NoError(t, json.Unmarshal([]byte(output), &summary))
		assert.Equal(t, "magnuscarlsen", summary.Seed)
		assert.Equal(t, 2, summary.PlayersDiscovered)
	})

	t.Run("player lookup", func(t *testing.T) {
		output, err := runner.run("player", "hikaru")
		require.NoError(t, err, output)

		var player cli.Player
		require.NoError(t, json.Unmarshal([]byte(output), &player))
		assert.Equal(t, "hikaru", player.Username)
		require.NotNil(t, player.Distance)
		assert.Equal(t, 1, *player.Distance)
	})

	t.Run("path lookup", func(t *testing.T) {
		output, err := runner.run("path", "hikaru")
		require.NoError(t, err, output)

		var path cli.Path
		require.NoError(t, json.Unmarshal([]byte(output), &path))
		assert.Equal(t, []string{"hikaru", "magnuscarlsen"}, path.Path)
		assert.Equal(t, 1, path.Length)
	})

	t.Run("monitor", func(t *testing.T) {
		output, err := runner.run("monitor")
		require.NoError(t, err, output)

		var report cli.UsageReport
		require.NoError(t, json.Unmarshal([]byte(output), &report))
		assert.EqualValues(t, 2, report.Stats.Players)
		assert.EqualValues(t, 1, report.Stats.Edges)
	})

	t.Run("metadata", func(t *testing.T) {
		output, err := runner.run("metadata")
		require.NoError(t, err, output)

		var meta cli.Metadata
		require.NoError(t, json.Unmarshal([]byte(output), &meta))
		assert.Equal(t, "historical", meta.IngestionType)
	})

	t.Run("cleanup keeps recent data", func(t *testing.T) {
		output, err := runner.run("cleanup", "--years", "5")
		require.NoError(t, err, output)

		var result cli.CleanupResult
		require.NoError(t, json.Unmarshal([]byte(output), &result))
		assert.Zero(t, result.DeletedGames)
	})

	t.Run("unknown player errors", func(t *testing.T) {
		output, err := runner.run("player", "nobody")
		require.Error(t, err)
		assert.Contains(t, output, "PLAYER_NOT_FOUND")
	})
}
