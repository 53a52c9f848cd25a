package report

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"reportforge/internal/database"
)

// BatchItem is the outcome of one request within a batch window.
type BatchItem struct {
	Request Request
	Record  *database.ReportRecord
	Err     error
}

// GenerateBatch processes requests with bounded concurrency. Failures are
// collected per item; one failure does not abort siblings already
// dispatched in the same window.
func (p *Pipeline) GenerateBatch(ctx context.Context, reqs []Request) []BatchItem {
	items := make([]BatchItem, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.batchCap)

	for i, req := range reqs {
		g.Go(func() error {
			rec, err := p.Generate(gctx, req, false)
			items[i] = BatchItem{Request: req, Record: rec, Err: err}
			// Errors stay in the item so siblings keep running.
			return nil
		})
	}
	_ = g.Wait()

	var failed int
	for _, item := range items {
		if item.Err != nil {
			failed++
		}
	}
	p.logger.Info("batch generation finished",
		slog.Int("total", len(items)),
		slog.Int("failed", failed),
	)
	return items
}
