package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/analysis"
	"github.com/drutigliano19/spark-history-mcp/internal/config"
	"github.com/drutigliano19/spark-history-mcp/internal/tools"
)

const testAppID = "app-20240101100000-0001"

type mockCaller struct {
	mock.Mock
}

func (m *mockCaller) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	ret := m.Called(name, args)
	return ret.String(0), ret.Error(1)
}

func (m *mockCaller) Close() error {
	return nil
}

func historyServer(t *testing.T) *httptest.Server {
	body, err := os.ReadFile("testdata/applications.json")
	require.NoError(t, err)
	var apps []sparkhistory.ApplicationInfo
	require.NoError(t, json.Unmarshal(body, &apps))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/v1/applications" {
			_, _ = w.Write(body)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/applications/")
		for _, app := range apps {
			if app.ID == id {
				_ = json.NewEncoder(w).Encode(app)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type harness struct {
	dir     string
	config  string
	caller  *mockCaller
	session *Session
}

func newHarness(t *testing.T) *harness {
	t.Setenv("NO_COLOR", "1")
	dir := t.TempDir()
	h := &harness{
		dir:     dir,
		config:  filepath.Join(dir, "config.yaml"),
		caller:  &mockCaller{},
		session: NewSession(filepath.Join(dir, "session")),
	}

	cfg := config.Default()
	cfg.Cache = config.CacheConfig{Dir: filepath.Join(dir, "cache")}
	cfg.Servers = map[string]config.ServerConfig{
		"local": {URL: historyServer(t).URL, Default: true, Timeout: 5},
	}
	require.NoError(t, cfg.Write(h.config))
	t.Cleanup(func() { h.caller.AssertExpectations(t) })
	return h
}

func (h *harness) run(args ...string) (string, error) {
	o := &options{
		v:       viper.New(),
		version: "test",
		session: h.session,
		newCaller: func(ctx context.Context, o *options) (toolCaller, error) {
			return h.caller, nil
		},
	}
	cmd := newRootCommand(o)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", h.config, "--quiet"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) expect(t *testing.T, tool string, match func(args map[string]any) bool, result any) {
	out, err := json.Marshal(result)
	require.NoError(t, err)
	h.caller.On("Call", tool, mock.MatchedBy(match)).Return(string(out), nil).Once()
}

func TestAppsCommands(t *testing.T) {
	h := newHarness(t)

	t.Run("list as json", func(t *testing.T) {
		out, err := h.run("apps", "list", "-o", "json")
		require.NoError(t, err)
		var apps []sparkhistory.ApplicationInfo
		require.NoError(t, json.Unmarshal([]byte(out), &apps))
		require.Len(t, apps, 1)
		assert.Equal(t, testAppID, apps[0].ID)
	})

	t.Run("list numbers apps", func(t *testing.T) {
		out, err := h.run("apps", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "daily-aggregation")
		assert.Contains(t, out, "Tip: use 1")

		id, err := h.session.Resolve("1")
		require.NoError(t, err)
		assert.Equal(t, testAppID, id)
	})

	t.Run("list filters by name", func(t *testing.T) {
		out, err := h.run("apps", "list", "--name-exact", "nightly", "-o", "json")
		require.NoError(t, err)
		assert.Equal(t, "[]", strings.TrimSpace(out))
	})

	t.Run("show by number", func(t *testing.T) {
		_, err := h.run("apps", "list")
		require.NoError(t, err)

		out, err := h.run("apps", "show", "1", "-o", "table")
		require.NoError(t, err)
		assert.Contains(t, out, testAppID)
		assert.Contains(t, out, "etl")
	})

	t.Run("show unknown number", func(t *testing.T) {
		_, err := h.run("apps", "show", "7")
		assert.ErrorIs(t, err, ErrUnknownRef)
	})
}

func TestAnalyzeInsights(t *testing.T) {
	h := newHarness(t)

	h.expect(t, "get_application_insights", func(args map[string]any) bool {
		return args["app_id"] == testAppID &&
			args["skip_shuffle_skew"] == true &&
			args["max_recommendations"] == analysis.DefaultInsightOptions().MaxRecommendations &&
			args["server"] == nil
	}, analysis.Insights{
		ApplicationID:   testAppID,
		ApplicationName: "daily-aggregation",
		Recommendations: []analysis.Recommendation{
			{Type: "memory", Priority: "high", Issue: "Executors spill to disk", Suggestion: "Raise executor memory"},
		},
		Overview: analysis.InsightsSummary{TotalRecommendations: 1, HighPriority: 1},
	})

	out, err := h.run("analyze", "insights", testAppID, "--skip-shuffle-skew")
	require.NoError(t, err)
	assert.Contains(t, out, "Insights for "+testAppID)
	assert.Contains(t, out, "Raise executor memory")
	assert.Contains(t, out, "1 high priority recommendation(s)")

	t.Run("server flag is forwarded", func(t *testing.T) {
		h.expect(t, "get_application_insights", func(args map[string]any) bool {
			return args["server"] == "prod"
		}, analysis.Insights{ApplicationID: testAppID})

		out, err := h.run("analyze", "insights", testAppID, "-s", "prod", "-o", "json")
		require.NoError(t, err)
		assert.Contains(t, out, `"application_id": "`+testAppID+`"`)
	})

	t.Run("tool errors are returned", func(t *testing.T) {
		h.caller.On("Call", "get_application_insights", mock.Anything).
			Return("", errors.New("application app-404 not found")).Once()

		_, err := h.run("analyze", "insights", "app-404")
		assert.ErrorContains(t, err, "app-404 not found")
	})
}

func TestCompareSession(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("compare", "stages", "1", "2")
	require.ErrorIs(t, err, ErrNoComparison)

	h.expect(t, "compare_app_performance", func(args map[string]any) bool {
		_, hasSig := args["significance_threshold"]
		return args["app_id1"] == "app-a" && args["app_id2"] == "app-b" && args["top_n"] == 3 && !hasSig
	}, tools.PerformanceComparison{
		Recommendations: []analysis.Recommendation{
			{Type: "configuration", Priority: "medium", Issue: "Shuffle partitions differ", Suggestion: "Align spark.sql.shuffle.partitions"},
		},
	})

	out, err := h.run("compare", "apps", "app-a", "app-b")
	require.NoError(t, err)
	assert.Contains(t, out, "app-a vs app-b")
	assert.Contains(t, out, "Align spark.sql.shuffle.partitions")
	assert.Contains(t, out, "Comparison session")

	saved, err := h.session.LoadComparison()
	require.NoError(t, err)
	assert.Equal(t, "app-a", saved.AppID1)

	h.expect(t, "compare_stages", func(args map[string]any) bool {
		return args["app_id1"] == "app-a" && args["app_id2"] == "app-b" &&
			args["stage_id1"] == 1 && args["stage_id2"] == 2 &&
			args["significance_threshold"] == 0.25
	}, analysis.StageComparison{
		Stage1:           analysis.StageBrief{StageID: 1, Name: "map at Job.scala:10", Status: "COMPLETE"},
		Stage2:           analysis.StageBrief{StageID: 2, Name: "map at Job.scala:10", Status: "COMPLETE"},
		TotalDifferences: 2,
	})

	out, err = h.run("compare", "stages", "1", "2", "--significance", "0.25")
	require.NoError(t, err)
	assert.Contains(t, out, "Stage 1 of app-a vs stage 2 of app-b")
	assert.Contains(t, out, "2 significant difference(s)")

	_, err = h.run("compare", "stages", "one", "2")
	assert.ErrorContains(t, err, "invalid stage id")

	_, err = h.run("compare", "clear")
	require.NoError(t, err)
	_, err = h.run("compare", "timeline")
	assert.ErrorIs(t, err, ErrNoComparison)
}

func TestConfigCommands(t *testing.T) {
	h := newHarness(t)

	t.Run("init", func(t *testing.T) {
		path := filepath.Join(h.dir, "new", "config.yaml")
		out, err := h.run("config", "init", "--config", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Configuration written to "+path)
		assert.FileExists(t, path)

		_, err = h.run("config", "init", "--config", path)
		assert.ErrorContains(t, err, "already exists")

		_, err = h.run("config", "init", "--config", path, "--force")
		assert.NoError(t, err)
	})

	t.Run("validate", func(t *testing.T) {
		out, err := h.run("config", "validate", "-o", "json")
		require.NoError(t, err)
		var res struct {
			Valid bool `json:"valid"`
			Servers []struct {
				Name    string `json:"name"`
				Default bool   `json:"default"`
			} `json:"servers"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.True(t, res.Valid)
		require.Len(t, res.Servers, 1)
		assert.Equal(t, "local", res.Servers[0].Name)
		assert.True(t, res.Servers[0].Default)
	})

	t.Run("show masks credentials", func(t *testing.T) {
		cfg, err := config.Load(h.config)
		require.NoError(t, err)
		s := cfg.Servers["local"]
		s.Auth = config.AuthConfig{Username: "spark", Password: "hunter2"}
		cfg.Servers["local"] = s
		path := filepath.Join(h.dir, "auth.yaml")
		require.NoError(t, cfg.Write(path))

		out, err := h.run("config", "show", "--config", path)
		require.NoError(t, err)
		assert.Contains(t, out, "username: spark")
		assert.Contains(t, out, masked)
		assert.NotContains(t, out, "hunter2")
	})
}

func TestCacheClear(t *testing.T) {
	h := newHarness(t)
	dir := filepath.Join(h.dir, "cache")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "application-abc.json"), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o600))

	out, err := h.run("cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 cached response(s)")
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestUnknownFormat(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("apps", "list", "-o", "xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
