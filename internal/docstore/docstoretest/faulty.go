// Package docstoretest provides a docstore.Store wrapper that injects
// failures, for tests of code built on the document store.
package docstoretest

import (
	"context"
	"strings"
	"sync"

	"github.com/nikbrunner/aidir/internal/docstore"
)

// Op names a Store method.
type Op string

const (
	OpList      Op = "list"
	OpGet       Op = "get"
	OpQuery     Op = "query"
	OpSubscribe Op = "subscribe"
	OpSet       Op = "set"
	OpDelete    Op = "delete"
)

type rule struct {
	op    Op
	match string
	err   error
}

// Faulty wraps a Store and fails selected calls.
type Faulty struct {
	docstore.Store

	mu       sync.Mutex
	rules    []rule
	calls    map[Op]int
	onErrors []func(error)
}

// Wrap returns a Faulty around store that fails nothing yet.
func Wrap(store docstore.Store) *Faulty {
	return &Faulty{Store: store, calls: make(map[Op]int)}
}

// FailOn makes every op call whose path contains match return err.
// An empty match fails every call of op. Filtered queries are matched
// against "collection?field".
func (f *Faulty) FailOn(op Op, match string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{op: op, match: match, err: err})
}

// Reset removes every failure rule.
func (f *Faulty) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = nil
}

// Calls reports how many times op was called.
func (f *Faulty) Calls(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Faulty) check(op Op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	for _, r := range f.rules {
		if r.op == op && strings.Contains(path, r.match) {
			return r.err
		}
	}
	return nil
}

func (f *Faulty) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	if err := f.check(OpList, collection); err != nil {
		return nil, err
	}
	return f.Store.List(ctx, collection)
}

func (f *Faulty) Get(ctx context.Context, path string) (*docstore.Document, error) {
	if err := f.check(OpGet, path); err != nil {
		return nil, err
	}
	return f.Store.Get(ctx, path)
}

func (f *Faulty) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	match := collection
	if q.Field != "" {
		match += "?" + q.Field
	}
	if err := f.check(OpQuery, match); err != nil {
		return nil, err
	}
	return f.Store.Query(ctx, collection, q)
}

func (f *Faulty) Subscribe(ctx context.Context, collection string, onChange func([]docstore.Document), onError func(error)) (docstore.Unsubscribe, error) {
	if err := f.check(OpSubscribe, collection); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.onErrors = append(f.onErrors, onError)
	f.mu.Unlock()
	return f.Store.Subscribe(ctx, collection, onChange, onError)
}

// BreakSubscriptions reports err to every listener attached so far, as a
// backend would when a live query dies.
func (f *Faulty) BreakSubscriptions(err error) {
	f.mu.Lock()
	handlers := f.onErrors
	f.onErrors = nil
	f.mu.Unlock()
	for _, h := range handlers {
		h(err)
	}
}

func (f *Faulty) Set(ctx context.Context, path string, data map[string]any, merge bool) error {
	if err := f.check(OpSet, path); err != nil {
		return err
	}
	return f.Store.Set(ctx, path, data, merge)
}

func (f *Faulty) Delete(ctx context.Context, path string) error {
	if err := f.check(OpDelete, path); err != nil {
		return err
	}
	return f.Store.Delete(ctx, path)
}
