// Package fetch caches History Server responses of finished applications.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/metrics"
)

const (
	KindApplication = "application"
	KindStages      = "stages"
	KindExecutors   = "executors"
	KindEnvironment = "environment"

	cacheExt = ".json"
)

// Client is the part of the History Server API the fetcher caches.
type Client interface {
	Name() string
	GetApplication(ctx context.Context, appID string) (*sparkhistory.ApplicationInfo, error)
	ListStages(ctx context.Context, appID string, opts sparkhistory.StageListOptions) ([]sparkhistory.StageData, error)
	ListAllExecutors(ctx context.Context, appID string) ([]sparkhistory.ExecutorSummary, error)
	GetEnvironment(ctx context.Context, appID string) (*sparkhistory.ApplicationEnvironmentInfo, error)
}

// Fetcher reads through a process cache and an optional disk cache. Only
// data of completed applications is cached, since running ones still
// change.
type Fetcher struct {
	client Client
	dir    string

	mu  sync.RWMutex
	mem map[string][]byte
}

// New returns a fetcher for client. An empty dir disables the disk cache.
func New(client Client, dir string) *Fetcher {
	return &Fetcher{
		client: client,
		dir:    dir,
		mem:    map[string][]byte{},
	}
}

func (f *Fetcher) Application(ctx context.Context, appID string) (*sparkhistory.ApplicationInfo, error) {
	key := f.key(KindApplication, appID)
	var app sparkhistory.ApplicationInfo
	if f.lookup(KindApplication, key, &app) {
		return &app, nil
	}

	res, err := f.client.GetApplication(ctx, appID)
	if err != nil {
		return nil, err
	}
	if res.Completed() {
		f.store(key, res)
	}
	return res, nil
}

// Stages lists every stage of the application, with task summaries when
// withSummaries is set.
func (f *Fetcher) Stages(ctx context.Context, appID string, withSummaries bool) ([]sparkhistory.StageData, error) {
	return cached(ctx, f, KindStages, []string{appID, fmt.Sprint(withSummaries)}, appID, func() ([]sparkhistory.StageData, error) {
		opts := sparkhistory.StageListOptions{WithSummaries: withSummaries}
		if withSummaries {
			opts.Quantiles = sparkhistory.DefaultQuantiles
		}
		return f.client.ListStages(ctx, appID, opts)
	})
}

// Executors lists active and removed executors.
func (f *Fetcher) Executors(ctx context.Context, appID string) ([]sparkhistory.ExecutorSummary, error) {
	return cached(ctx, f, KindExecutors, []string{appID}, appID, func() ([]sparkhistory.ExecutorSummary, error) {
		return f.client.ListAllExecutors(ctx, appID)
	})
}

func (f *Fetcher) Environment(ctx context.Context, appID string) (*sparkhistory.ApplicationEnvironmentInfo, error) {
	return cached(ctx, f, KindEnvironment, []string{appID}, appID, func() (*sparkhistory.ApplicationEnvironmentInfo, error) {
		return f.client.GetEnvironment(ctx, appID)
	})
}

func cached[T any](ctx context.Context, f *Fetcher, kind string, ids []string, appID string, load func() (T, error)) (T, error) {
	key := f.key(kind, ids...)
	var v T
	if f.lookup(kind, key, &v) {
		return v, nil
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	app, err := f.Application(ctx, appID)
	if err != nil {
		slog.Debug("Skipping cache, application lookup failed", "app", appID, "error", err)
		return v, nil
	}
	if app.Completed() {
		f.store(key, v)
	}
	return v, nil
}

// key hashes (server, kind, ids) into a file name safe string.
func (f *Fetcher) key(kind string, ids ...string) string {
	parts := append([]string{f.client.Name(), kind}, ids...)
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

func (f *Fetcher) lookup(kind, key string, v any) bool {
	f.mu.RLock()
	data, ok := f.mem[key]
	f.mu.RUnlock()
	if ok && json.Unmarshal(data, v) == nil {
		metrics.RecordCacheLookup(kind, metrics.CacheMemoryHit)
		return true
	}

	if f.dir != "" {
		data, err := os.ReadFile(filepath.Join(f.dir, key+cacheExt))
		if err == nil && json.Unmarshal(data, v) == nil {
			f.mu.Lock()
			f.mem[key] = data
			f.mu.Unlock()
			metrics.RecordCacheLookup(kind, metrics.CacheDiskHit)
			return true
		}
	}
	metrics.RecordCacheLookup(kind, metrics.CacheMiss)
	return false
}

// store never fails the caller; disk errors are logged.
func (f *Fetcher) store(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Failed to encode cache entry", "error", err)
		return
	}
	f.mu.Lock()
	f.mem[key] = data
	f.mu.Unlock()

	if f.dir == "" {
		return
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		slog.Warn("Failed to create cache dir", "dir", f.dir, "error", err)
		return
	}
	if err := os.WriteFile(filepath.Join(f.dir, key+cacheExt), data, 0o644); err != nil {
		slog.Warn("Failed to write cache entry", "dir", f.dir, "error", err)
	}
}

// ClearDisk removes cached responses from dir and returns how many were
// deleted. A missing dir is not an error.
func ClearDisk(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache dir: %w", err)
	}

	n := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != cacheExt {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return n, fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
		n++
	}
	return n, nil
}
