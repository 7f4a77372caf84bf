package tools

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
	"github.com/drutigliano19/spark-history-mcp/internal/analysis"
	"github.com/drutigliano19/spark-history-mcp/internal/fetch"
)

// appData is everything the analysis tools read about one application.
type appData struct {
	app       *sparkhistory.ApplicationInfo
	stages    []sparkhistory.StageData
	executors []sparkhistory.ExecutorSummary
}

func loadApp(ctx context.Context, f *fetch.Fetcher, appID string, withSummaries bool) (*appData, error) {
	d := &appData{}
	var err error
	if d.app, err = f.Application(ctx, appID); err != nil {
		return nil, fmt.Errorf("failed to get application %s: %w", appID, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if d.stages, err = f.Stages(gctx, appID, withSummaries); err != nil {
			return fmt.Errorf("failed to list stages of %s: %w", appID, err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if d.executors, err = f.Executors(gctx, appID); err != nil {
			return fmt.Errorf("failed to list executors of %s: %w", appID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// loadPair loads two applications concurrently.
func loadPair(ctx context.Context, f *fetch.Fetcher, appID1, appID2 string, withSummaries bool) (a, b *appData, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		a, err = loadApp(gctx, f, appID1, withSummaries)
		return err
	})
	g.Go(func() (err error) {
		b, err = loadApp(gctx, f, appID2, withSummaries)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func (t tool) summarize(ctx context.Context, f *fetch.Fetcher, appID string) (*analysis.AppSummary, error) {
	d, err := loadApp(ctx, f, appID, true)
	if err != nil {
		return nil, err
	}
	return analysis.SummarizeApp(*d.app, d.stages, d.executors)
}

func (t tool) jobs(ctx context.Context, server, appID string) ([]sparkhistory.JobData, error) {
	c, err := t.client(server)
	if err != nil {
		return nil, err
	}
	jobs, err := c.ListJobs(ctx, appID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs of %s: %w", appID, err)
	}
	return jobs, nil
}
