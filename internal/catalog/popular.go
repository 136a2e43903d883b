package catalog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/nikbrunner/aidir/internal/docstore"
	"github.com/nikbrunner/aidir/internal/model"
)

// LoadPopular selects up to limit tools rated at least minRating, highest
// first. When the rated query fails or comes back empty it falls back to an
// unordered listing, so the result is only an error when both reads fail.
func (l *Loader) LoadPopular(ctx context.Context, limit int, minRating float64) (tools []model.Tool, err error) {
	start := time.Now()
	defer func() { l.metrics.observeLoad("popular", start, err) }()
	defer l.track()()

	store, err := l.storeHandle()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		l.setPopular([]model.Tool{})
		return []model.Tool{}, nil
	}

	// Over-fetch so the client-side sort has candidates to choose from.
	fetch := limit * 2

	docs, qerr := store.Query(ctx, ToolsCollection, docstore.Query{
		Field:      "rating",
		Min:        minRating,
		Descending: true,
		Limit:      fetch,
	})
	if qerr != nil {
		l.logger.Warn("rated query failed, falling back", zap.Error(qerr))
	}
	if qerr != nil || len(docs) == 0 {
		var ferr error
		docs, ferr = store.Query(ctx, ToolsCollection, docstore.Query{Limit: fetch})
		if ferr != nil {
			if qerr == nil {
				qerr = ferr
			}
			err = fmt.Errorf("%w: popular tools: %w", ErrDataSource, qerr)
			l.setErr(err)
			return nil, err
		}
	}

	tools = make([]model.Tool, 0, len(docs))
	for _, d := range docs {
		t, derr := decodeTool(d, l.logo)
		if derr != nil {
			l.logger.Warn("skipping malformed tool document", zap.String("id", d.ID), zap.Error(derr))
			continue
		}
		tools = append(tools, t.Basic())
	}

	sort.SliceStable(tools, func(i, j int) bool {
		return tools[i].RatingValue() > tools[j].RatingValue()
	})
	if len(tools) > limit {
		tools = tools[:limit]
	}

	l.setPopular(tools)
	l.logger.Debug("popular tools loaded", zap.Int("count", len(tools)))
	return append([]model.Tool(nil), tools...), nil
}

func (l *Loader) setPopular(tools []model.Tool) {
	l.mu.Lock()
	l.popularTools = tools
	l.mu.Unlock()
}
