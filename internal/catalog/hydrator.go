package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nikbrunner/aidir/internal/model"
)

// startHydrator schedules the one background pass that fills the snapshot
// with every tool. Later calls are no-ops.
func (l *Loader) startHydrator() {
	l.mu.Lock()
	if l.hydrating {
		l.mu.Unlock()
		return
	}
	l.hydrating = true
	l.mu.Unlock()

	l.bgWG.Add(1)
	go func() {
		defer l.bgWG.Done()

		timer := time.NewTimer(l.hydrateDelay)
		defer timer.Stop()
		select {
		case <-l.bgCtx.Done():
			return
		case <-timer.C:
		}

		l.hydrateBasic(l.bgCtx)
	}()
}

// hydrateBasic lists every tool without sub-resources and swaps the
// snapshot, unless a full load or a live update already installed a
// detailed one. Failures are logged; there is no retry.
func (l *Loader) hydrateBasic(ctx context.Context) {
	start := time.Now()
	defer l.track()()

	store, err := l.storeHandle()
	if err != nil {
		return
	}

	docs, err := store.List(ctx, ToolsCollection)
	l.metrics.observeLoad("hydrate", start, err)
	if err != nil {
		l.logger.Warn("background hydration failed", zap.Error(err))
		return
	}

	tools := make([]model.Tool, 0, len(docs))
	for _, d := range docs {
		t, err := decodeTool(d, l.logo)
		if err != nil {
			l.logger.Warn("skipping malformed tool document", zap.String("id", d.ID), zap.Error(err))
			continue
		}
		tools = append(tools, t.Basic())
	}

	count, replaced := l.replaceBasic(tools)
	if replaced {
		l.logger.Info("catalog hydrated in background", zap.Int("tools", count))
	} else {
		l.logger.Debug("detailed catalog already loaded, keeping it", zap.Int("tools", count))
	}
	l.bus.Publish(AllToolsLoadedEvent{Count: count})
}
