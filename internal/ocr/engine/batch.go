package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/screenlens/screenlens/internal/ocr/executor"
)

// DefaultBatchConcurrency bounds parallel extractions in a batch.
const DefaultBatchConcurrency = 3

// BatchInvoke runs one engine over a set of images concurrently, bounded
// by limit, each under the given deadline. Results keep input order; a
// timed-out or failed item yields an empty string rather than failing
// the batch.
func BatchInvoke(ctx context.Context, eng Engine, images [][]byte, format string, deadline time.Duration, limit int) []string {
	if limit <= 0 {
		limit = DefaultBatchConcurrency
	}
	results := make([]string, len(images))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, data := range images {
		wg.Add(1)
		go func(i int, data []byte) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			out := executor.Run(ctx, deadline, func() (string, error) {
				return eng.Extract(ctx, data, format)
			})
			if out.Status != executor.StatusSuccess {
				slog.Debug("batch item dropped", "index", i, "status", out.Status.String(), "error", out.Err)
				return
			}
			results[i] = out.Text
		}(i, data)
	}
	wg.Wait()
	return results
}
