package docstore

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Store. Listeners are notified synchronously after
// each write, outside the store lock.
type Memory struct {
	mu     sync.RWMutex
	docs   map[string]map[string]any // path -> data
	subs   map[int]*memorySub
	nextID int
}

type memorySub struct {
	collection string
	onChange   func([]Document)
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string]map[string]any),
		subs: make(map[int]*memorySub),
	}
}

// List implements Store.
func (m *Memory) List(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ValidCollection(collection) {
		return nil, ErrInvalidPath
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(collection), nil
}

func (m *Memory) listLocked(collection string) []Document {
	docs := []Document{}
	for path, data := range m.docs {
		parent, id, err := Split(path)
		if err != nil || parent != collection {
			continue
		}
		docs = append(docs, Document{ID: id, Path: path, Data: copyData(data)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, id, err := Split(path)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.docs[path]
	if !ok {
		return nil, nil
	}
	return &Document{ID: id, Path: path, Data: copyData(data)}, nil
}

// Query implements Store.
func (m *Memory) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	docs, err := m.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	return applyQuery(docs, q), nil
}

// applyQuery filters, orders and limits an ID-ordered listing.
func applyQuery(docs []Document, q Query) []Document {
	if q.Field != "" {
		filtered := docs[:0]
		for _, d := range docs {
			if v, ok := numeric(d.Data[q.Field]); ok && v >= q.Min {
				filtered = append(filtered, d)
			}
		}
		docs = filtered
		if q.Descending {
			sort.SliceStable(docs, func(i, j int) bool {
				a, _ := numeric(docs[i].Data[q.Field])
				b, _ := numeric(docs[j].Data[q.Field])
				return a > b
			})
		}
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs
}

// Subscribe implements Store. The current listing is delivered before
// Subscribe returns.
func (m *Memory) Subscribe(ctx context.Context, collection string, onChange func([]Document), onError func(error)) (Unsubscribe, error) {
	if !ValidCollection(collection) {
		return nil, ErrInvalidPath
	}
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = &memorySub{collection: collection, onChange: onChange}
	initial := m.listLocked(collection)
	m.mu.Unlock()

	onChange(initial)

	var once sync.Once
	stop := make(chan struct{})
	unsubscribe := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(stop)
		})
	}
	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				unsubscribe()
			case <-stop:
			}
		}()
	}
	return unsubscribe, nil
}

// Set implements Store.
func (m *Memory) Set(ctx context.Context, path string, data map[string]any, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	collection, _, err := Split(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	existing, ok := m.docs[path]
	if merge && ok {
		merged := copyData(existing)
		for k, v := range data {
			merged[k] = v
		}
		m.docs[path] = merged
	} else {
		m.docs[path] = copyData(data)
	}
	m.mu.Unlock()

	m.notify(collection)
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	collection, _, err := Split(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	_, existed := m.docs[path]
	delete(m.docs, path)
	m.mu.Unlock()

	if existed {
		m.notify(collection)
	}
	return nil
}

// Close implements Store.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.subs = make(map[int]*memorySub)
	m.mu.Unlock()
	return nil
}

// notify delivers the new listing to every listener on collection.
func (m *Memory) notify(collection string) {
	m.mu.RLock()
	var targets []*memorySub
	ids := make([]int, 0, len(m.subs))
	for id := range m.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if s := m.subs[id]; s.collection == collection {
			targets = append(targets, s)
		}
	}
	var listing []Document
	if len(targets) > 0 {
		listing = m.listLocked(collection)
	}
	m.mu.RUnlock()

	for _, s := range targets {
		s.onChange(cloneDocs(listing))
	}
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func cloneDocs(docs []Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = Document{ID: d.ID, Path: d.Path, Data: copyData(d.Data)}
	}
	return out
}
