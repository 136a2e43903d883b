package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nikbrunner/aidir/internal/docstore"
	"github.com/nikbrunner/aidir/internal/model"
)

// Subscribe attaches a live listener to the tools collection, replacing any
// earlier one. Every change set re-hydrates the whole catalog (summary and
// pricing included), swaps the snapshot and hands the tools to callback.
// A subscription error is recorded and published as an ErrorEvent; the
// listener is not re-established.
func (l *Loader) Subscribe(ctx context.Context, callback func([]model.Tool)) error {
	store, err := l.storeHandle()
	if err != nil {
		return err
	}

	l.subMu.Lock()
	defer l.subMu.Unlock()

	if l.unsub != nil {
		l.unsub()
		l.unsub = nil
	}
	gen := l.subGen.Add(1)

	onChange := func(docs []docstore.Document) {
		if !l.subscribed(gen) {
			return
		}
		tools := l.hydrateAll(ctx, store, docs)
		l.deliverMu.RLock()
		defer l.deliverMu.RUnlock()
		// The listener may have been detached while hydrating.
		if !l.subscribed(gen) {
			return
		}
		l.replaceAll(tools)
		l.metrics.realtimeUpdate()
		l.logger.Debug("realtime update", zap.Int("tools", len(tools)))
		if callback != nil {
			callback(append([]model.Tool(nil), tools...))
		}
	}
	onError := func(err error) {
		if !l.subscribed(gen) {
			return
		}
		err = fmt.Errorf("%w: live subscription: %w", ErrDataSource, err)
		l.logger.Error("realtime subscription failed", zap.Error(err))
		l.setErr(err)
		l.bus.Publish(ErrorEvent{Err: err})
	}

	// The initial listing may be delivered before store.Subscribe returns,
	// so the callbacks only read the atomic generation.
	unsub, err := store.Subscribe(ctx, ToolsCollection, onChange, onError)
	if err != nil {
		err = fmt.Errorf("%w: subscribe: %w", ErrDataSource, err)
		l.setErr(err)
		return err
	}
	l.unsub = unsub
	return nil
}

// Unsubscribe detaches the live listener and waits for a callback already
// in progress. No callback runs after it returns. It must not be called from
// inside the callback.
func (l *Loader) Unsubscribe() {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	l.subGen.Add(1)
	if l.unsub != nil {
		l.unsub()
		l.unsub = nil
	}
	l.deliverMu.Lock()
	l.deliverMu.Unlock()
}

func (l *Loader) subscribed(gen uint64) bool {
	return l.subGen.Load() == gen
}
