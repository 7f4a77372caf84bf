package sparkhistory

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func loadRespFile(w http.ResponseWriter, path string) {
	path = fmt.Sprintf("testdata/%s", path)
	file, err := os.ReadFile(path)
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(file); err == nil {
			return
		}
	}
	slog.Info("file not found", "path", path)
	w.WriteHeader(http.StatusNotFound)
}

func getClient(t *testing.T, conf Config, hf http.HandlerFunc) *Client {
	server := httptest.NewServer(hf)
	t.Cleanup(server.Close)
	conf.URL = server.URL
	client, err := NewClient("test", conf)
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("invalid url", func(t *testing.T) {
		_, err := NewClient("bad", Config{URL: "not a url"})
		assert.Error(t, err)
	})

	t.Run("trims trailing slash and applies defaults", func(t *testing.T) {
		c, err := NewClient("local", Config{URL: "http://localhost:18080/"})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:18080/api/v1", c.BaseURL())
		assert.Equal(t, "local", c.Name())
		assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
		assert.Nil(t, c.limiter)
	})

	t.Run("rate limit", func(t *testing.T) {
		c, err := NewClient("local", Config{URL: "http://localhost:18080", RateLimit: 0.5})
		require.NoError(t, err)
		require.NotNil(t, c.limiter)
		assert.Equal(t, 1, c.limiter.Burst())
	})
}

func TestListApplications(t *testing.T) {
	client := getClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/applications", r.URL.Path)
		assert.Equal(t, []string{"COMPLETED"}, r.URL.Query()["status"])
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		loadRespFile(w, "applications.json")
	})

	apps, err := client.ListApplications(context.Background(), ApplicationListFilter{Status: []string{"COMPLETED"}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, apps, 2)

	first := apps[0]
	assert.Equal(t, "nightly-etl", first.Name)
	assert.Equal(t, 4, first.CoresPerExecutor)
	assert.True(t, first.Completed())
	attempt, ok := first.LastAttempt()
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC), attempt.StartTime.Time)
	assert.Equal(t, 30*time.Minute, attempt.EndTime.Sub(attempt.StartTime.Time))

	second := apps[1]
	assert.False(t, second.Completed())
	assert.Equal(t, time.UnixMilli(1672653600000).UTC(), second.Attempts[0].StartTime.Time)
	assert.True(t, second.Attempts[0].EndTime.IsZero())
}

func TestAuthentication(t *testing.T) {
	t.Run("basic auth", func(t *testing.T) {
		client := getClient(t, Config{Username: "user", Password: "secret"}, func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "user", user)
			assert.Equal(t, "secret", pass)
			_, _ = w.Write([]byte(`{"spark":"3.5.0"}`))
		})
		v, err := client.GetVersion(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "3.5.0", v.Spark)
	})

	t.Run("bearer token", func(t *testing.T) {
		client := getClient(t, Config{Token: "abc"}, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"spark":"3.5.0"}`))
		})
		_, err := client.GetVersion(context.Background())
		require.NoError(t, err)
	})
}

func TestAttemptFallback(t *testing.T) {
	t.Run("retries with attempt id on 404", func(t *testing.T) {
		var paths []string
		client := getClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path)
			if r.URL.Path == "/api/v1/applications/app-1/1/environment" {
				loadRespFile(w, "environment.json")
				return
			}
			w.WriteHeader(http.StatusNotFound)
		})

		env, err := client.GetEnvironment(context.Background(), "app-1")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"/api/v1/applications/app-1/environment",
			"/api/v1/applications/app-1/1/environment",
		}, paths)
		assert.Equal(t, "17.0.8", env.Runtime.JavaVersion)
		require.Len(t, env.SparkProperties, 3)
		assert.Equal(t, "spark.executor.memory", env.SparkProperties[1].Key())
		assert.Equal(t, "8g", env.SparkProperties[1].Value())
	})

	t.Run("returns second error when retry fails", func(t *testing.T) {
		calls := 0
		client := getClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.ListJobs(context.Background(), "app-1", nil)
		assert.Error(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("no retry for other status codes", func(t *testing.T) {
		calls := 0
		client := getClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.ListJobs(context.Background(), "app-1", nil)
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("no retry outside applications", func(t *testing.T) {
		calls := 0
		client := getClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.GetVersion(context.Background())
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestWithDefaultAttempt(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://h/api/v1/applications/app-1/jobs", "http://h/api/v1/applications/app-1/1/jobs"},
		{"http://h/api/v1/applications/app-1/stages/3/0", "http://h/api/v1/applications/app-1/1/stages/3/0"},
		{"http://h/api/v1/applications/app-1/2/jobs", "http://h/api/v1/applications/app-1/2/jobs"},
		{"http://h/api/v1/applications/app-1", "http://h/api/v1/applications/app-1"},
		{"http://h/api/v1/version", "http://h/api/v1/version"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, WithDefaultAttempt(tt.in))
		})
	}
}

func TestListStages(t *testing.T) {
	t.Run("parses distributions", func(t *testing.T) {
		client := getClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "/api/v1/applications/app-1/stages", r.URL.Path)
			assert.Equal(t, "true", q.Get("withSummaries"))
			assert.Equal(t, DefaultQuantiles, q.Get("quantiles"))
			assert.Empty(t, q["taskStatus"])
			loadRespFile(w, "stages.json")
		})

		stages, err := client.ListStages(context.Background(), "app-1", StageListOptions{
			WithSummaries: true,
			TaskStatus:    []string{TaskFailed},
		})
		require.NoError(t, err)
		require.Len(t, stages, 1)
		s := stages[0]
		assert.Equal(t, 7*time.Minute, s.Duration())
		require.NotNil(t, s.TaskMetricsDistributions)
		assert.Equal(t, []float64{0, 10, 20, 30, 40}, s.TaskMetricsDistributions.ShuffleReadMetrics.FetchWaitTime)
	})

	t.Run("falls back without summaries on decode failure", func(t *testing.T) {
		var summaries []string
		client := getClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			summaries = append(summaries, r.URL.Query().Get("withSummaries"))
			if r.URL.Query().Get("withSummaries") == "true" {
				_, _ = w.Write([]byte(`[{"stageId": "not-a-number"}]`))
				return
			}
			loadRespFile(w, "stages.json")
		})

		stages, err := client.ListStages(context.Background(), "app-1", StageListOptions{WithSummaries: true})
		require.NoError(t, err)
		assert.Len(t, stages, 1)
		assert.Equal(t, []string{"true", "false"}, summaries)
	})

	t.Run("task status only with details", func(t *testing.T) {
		client := getClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, []string{TaskFailed}, r.URL.Query()["taskStatus"])
			assert.Equal(t, "true", r.URL.Query().Get("details"))
			_, _ = w.Write([]byte(`[]`))
		})
		_, err := client.ListStages(context.Background(), "app-1", StageListOptions{Details: true, TaskStatus: []string{TaskFailed}})
		require.NoError(t, err)
	})
}

func TestSQLEndpoints(t *testing.T) {
	client := getClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/applications/app-1/sql":
			assert.Equal(t, "100", r.URL.Query().Get("length"))
			_, _ = w.Write([]byte(`[{"id": 1, "status": "COMPLETED", "duration": 1200, "submissionTime": "2023-01-01T10:00:00.000GMT"}]`))
		case "/api/v1/applications/app-1/2/sql/7":
			assert.Equal(t, "true", r.URL.Query().Get("planDescription"))
			_, _ = w.Write([]byte(`{"id": 7, "status": "FAILED", "planDescription": "== Physical Plan =="}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	execs, err := client.ListSQLExecutions(context.Background(), "app-1", SQLListOptions{Length: 100})
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, int64(1200), execs[0].Duration)

	exec, err := client.GetSQLExecution(context.Background(), "app-1", 7, SQLListOptions{AttemptID: "2", PlanDescription: true})
	require.NoError(t, err)
	assert.Equal(t, "FAILED", exec.Status)
}

func TestApplicationIDEscaping(t *testing.T) {
	var paths []string
	client := getClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath())
		switch r.URL.EscapedPath() {
		case "/api/v1/applications/..%2Fversion":
			_, _ = w.Write([]byte(`{}`))
		case "/api/v1/applications/app%2F1/executors":
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	t.Run("dot segments stay inside the id", func(t *testing.T) {
		paths = nil
		_, err := client.GetApplication(context.Background(), "../version")
		require.NoError(t, err)
		assert.Equal(t, []string{"/api/v1/applications/..%2Fversion"}, paths)
	})

	t.Run("slash does not add a segment", func(t *testing.T) {
		paths = nil
		_, err := client.ListExecutors(context.Background(), "app/1")
		require.NoError(t, err)
		assert.Equal(t, []string{"/api/v1/applications/app%2F1/executors"}, paths)
	})
}
