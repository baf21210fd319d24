// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/pdiddy/litsearch/pkg/types"
)

// Outcome is the result of one adapter within SearchAll.
type Outcome struct {
	Database types.SourceDatabase
	Articles []types.Article
	Err      error
	Elapsed  time.Duration
}

// SearchAll runs query against every adapter concurrently on a worker pool
// and stamps source_database on each article. Outcomes come back in adapter
// order; a failing source does not cancel the others. The returned error is
// set only when the pool itself cannot run.
func SearchAll(ctx context.Context, adapters []Adapter, query string, opts Options) ([]Outcome, error) {
	if len(adapters) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(len(adapters))
	if err != nil {
		return nil, fmt.Errorf("creating search pool: %w", err)
	}
	defer pool.Release()

	outcomes := make([]Outcome, len(adapters))
	var wg sync.WaitGroup
	for i, a := range adapters {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			start := time.Now()
			articles, err := a.Search(ctx, query, opts)
			for j := range articles {
				articles[j].SourceDatabase = a.Database()
			}
			outcomes[i] = Outcome{
				Database: a.Database(),
				Articles: articles,
				Err:      err,
				Elapsed:  time.Since(start),
			}
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			outcomes[i] = Outcome{Database: a.Database(), Err: fmt.Errorf("submitting search: %w", err)}
		}
	}
	wg.Wait()

	return outcomes, nil
}
