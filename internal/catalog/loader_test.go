package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/aidir/internal/docstore"
	"github.com/nikbrunner/aidir/internal/docstore/docstoretest"
	"github.com/nikbrunner/aidir/internal/model"
)

var errBoom = errors.New("boom")

func seedTool(t *testing.T, store docstore.Store, id string, data map[string]any) {
	t.Helper()
	err := store.Set(context.Background(), docstore.Join(ToolsCollection, id), data, false)
	assert.NilError(t, err)
}

func seedDoc(t *testing.T, store docstore.Store, path string, data map[string]any) {
	t.Helper()
	assert.NilError(t, store.Set(context.Background(), path, data, false))
}

// seedCatalog stores three tools rated 5.0, 4.8 and 4.0, with a summary and
// a pricing plan for "alpha" and a review for "beta".
func seedCatalog(t *testing.T) *docstore.Memory {
	t.Helper()
	store := docstore.NewMemory()
	seedTool(t, store, "alpha", map[string]any{
		"name": "Alpha", "description": "image generator", "primaryCategory": "Image",
		"categories": []string{"Design"}, "tags": []string{"art"}, "rating": 5.0,
		"logoFileName": "alpha logo.png",
	})
	seedTool(t, store, "beta", map[string]any{
		"name": "Beta", "description": "chat assistant", "primaryCategory": "Chat",
		"categories": []string{"Writing"}, "tags": []string{"llm"}, "rating": 4.8,
		"imageUrl": "https://img.example/beta.png",
	})
	seedTool(t, store, "gamma", map[string]any{
		"name": "Gamma", "description": "code helper", "primaryCategory": "Dev",
		"tags": []string{"code"}, "rating": 4.0,
	})
	seedDoc(t, store, "ai-tools/alpha/overview/summary", map[string]any{
		"longDescription": "Alpha draws pictures.", "highlights": "fast",
	})
	seedDoc(t, store, "ai-tools/alpha/pricing/free", map[string]any{
		"name": "Free", "price": "$0", "features": []string{"10 images"},
	})
	seedDoc(t, store, "ai-tools/beta/reviews/r1", map[string]any{
		"author": "kim", "rating": 4.5, "comment": "good",
	})
	return store
}

func newTestLoader(t *testing.T, params LoaderParams) *Loader {
	t.Helper()
	l := NewLoader(params)
	l.hydrateDelay = time.Hour
	t.Cleanup(l.Close)
	return l
}

func initLoader(t *testing.T, store docstore.Store) *Loader {
	t.Helper()
	l := newTestLoader(t, LoaderParams{})
	assert.NilError(t, l.Initialize(context.Background(), store))
	return l
}

func toolIDs(tools []model.Tool) []string {
	out := make([]string, len(tools))
	for i, tl := range tools {
		out[i] = tl.ID
	}
	return out
}

func TestInitialize_LoadsPopularAndPublishesReady(t *testing.T) {
	l := newTestLoader(t, LoaderParams{})
	var events []Event
	l.Bus().Subscribe(func(e Event) { events = append(events, e) })

	err := l.Initialize(context.Background(), seedCatalog(t))

	assert.NilError(t, err)
	assert.DeepEqual(t, events, []Event{ReadyEvent{Success: true}})
	assert.DeepEqual(t, toolIDs(l.PopularTools()), []string{"alpha", "beta"})
	state := l.State()
	assert.Check(t, is.Equal(state.Status, StatusReady))
	assert.Check(t, state.Initialized)
	assert.Check(t, !state.Loading)
	assert.Check(t, state.Err == nil)
}

func TestInitialize_Idempotent(t *testing.T) {
	store := docstoretest.Wrap(seedCatalog(t))
	l := initLoader(t, store)
	queries := store.Calls(docstoretest.OpQuery)

	assert.NilError(t, l.Initialize(context.Background(), store))
	assert.Equal(t, store.Calls(docstoretest.OpQuery), queries)
}

// gatedStore holds Query calls until release is closed.
type gatedStore struct {
	docstore.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedStore(store docstore.Store) *gatedStore {
	return &gatedStore{Store: store, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedStore) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.Store.Query(ctx, collection, q)
}

func TestInitialize_ConcurrentCallWaits(t *testing.T) {
	store := newGatedStore(seedCatalog(t))
	l := newTestLoader(t, LoaderParams{})
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- l.Initialize(ctx, store) }()
	<-store.entered

	second := make(chan error, 1)
	go func() { second <- l.Initialize(ctx, store) }()

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, l.Initialize(cancelled, store), context.Canceled)

	select {
	case <-second:
		t.Fatal("second Initialize returned while the first was loading")
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)
	assert.NilError(t, <-first)
	assert.NilError(t, <-second)
	assert.DeepEqual(t, toolIDs(l.PopularTools()), []string{"alpha", "beta"})
}

func TestInitialize_ConcurrentCallSharesFailure(t *testing.T) {
	faulty := docstoretest.Wrap(seedCatalog(t))
	faulty.FailOn(docstoretest.OpQuery, "", errBoom)
	store := newGatedStore(faulty)
	l := newTestLoader(t, LoaderParams{})
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- l.Initialize(ctx, store) }()
	<-store.entered

	second := make(chan error, 1)
	go func() { second <- l.Initialize(ctx, store) }()
	time.Sleep(20 * time.Millisecond)
	close(store.release)

	err := <-first
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, <-second, err)
}

func TestInitialize_NilStore(t *testing.T) {
	l := newTestLoader(t, LoaderParams{})
	var ready []ReadyEvent
	l.Bus().Subscribe(func(e Event) {
		if r, ok := e.(ReadyEvent); ok {
			ready = append(ready, r)
		}
	})

	err := l.Initialize(context.Background(), nil)

	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Assert(t, is.Len(ready, 1))
	assert.Check(t, !ready[0].Success)
	assert.Check(t, is.Equal(l.State().Status, StatusFailed))
}

func TestInitialize_FailureIsSticky(t *testing.T) {
	store := docstoretest.Wrap(seedCatalog(t))
	store.FailOn(docstoretest.OpQuery, "", errBoom)
	l := newTestLoader(t, LoaderParams{})

	err := l.Initialize(context.Background(), store)
	assert.ErrorIs(t, err, ErrDataSource)
	assert.ErrorIs(t, err, errBoom)

	store.Reset()
	again := l.Initialize(context.Background(), store)
	assert.Equal(t, again, err)
	assert.Check(t, !l.State().Initialized)
	assert.Check(t, l.State().Err != nil)
}

func TestStoreCallsBeforeInitialize(t *testing.T) {
	l := newTestLoader(t, LoaderParams{})

	_, err := l.LoadFullCatalog(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = l.ToolDetails(context.Background(), "alpha")
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.ErrorIs(t, l.Subscribe(context.Background(), nil), ErrNotInitialized)
	assert.Check(t, is.Len(l.AllTools(), 0))
}

func TestLoadPopular_SortsAndTruncates(t *testing.T) {
	l := initLoader(t, seedCatalog(t))

	tools, err := l.LoadPopular(context.Background(), 2, 4.5)

	assert.NilError(t, err)
	assert.DeepEqual(t, toolIDs(tools), []string{"alpha", "beta"})
	assert.Equal(t, tools[0].RatingValue(), 5.0)
	assert.Equal(t, tools[1].RatingValue(), 4.8)
	for _, tl := range tools {
		assert.Check(t, tl.Pricing == nil, "popular tools are basic")
		assert.Check(t, is.Equal(tl.LongDescription, ""))
	}
	assert.DeepEqual(t, toolIDs(l.PopularTools()), []string{"alpha", "beta"})
}

func TestLoadPopular_ResolvesLogos(t *testing.T) {
	l := initLoader(t, seedCatalog(t))

	tools, err := l.LoadPopular(context.Background(), 2, 4.5)

	assert.NilError(t, err)
	assert.Equal(t, *tools[0].LogoURL, model.DefaultLogoBaseURL+"alpha%20logo.png"+model.DefaultLogoSuffix)
	assert.Equal(t, *tools[1].LogoURL, "https://img.example/beta.png")
}

func TestLoadPopular_FallsBackWhenNothingQualifies(t *testing.T) {
	l := initLoader(t, seedCatalog(t))

	tools, err := l.LoadPopular(context.Background(), 2, 4.9)
	assert.NilError(t, err)
	// Only alpha qualifies, so no fallback.
	assert.DeepEqual(t, toolIDs(tools), []string{"alpha"})

	tools, err = l.LoadPopular(context.Background(), 2, 5.5)
	assert.NilError(t, err)
	assert.DeepEqual(t, toolIDs(tools), []string{"alpha", "beta"})
}

func TestLoadPopular_FallsBackOnQueryError(t *testing.T) {
	store := docstoretest.Wrap(seedCatalog(t))
	l := initLoader(t, store)
	store.FailOn(docstoretest.OpQuery, "?rating", errBoom)

	tools, err := l.LoadPopular(context.Background(), 1, 4.5)

	assert.NilError(t, err)
	assert.DeepEqual(t, toolIDs(tools), []string{"alpha"})
}

func TestLoadPopular_ErrorWhenBothFail(t *testing.T) {
	store := docstoretest.Wrap(seedCatalog(t))
	l := initLoader(t, store)
	store.FailOn(docstoretest.OpQuery, "", errBoom)

	_, err := l.LoadPopular(context.Background(), 2, 4.5)

	assert.ErrorIs(t, err, ErrDataSource)
	assert.ErrorIs(t, err, errBoom)
	// The previous selection survives.
	assert.Check(t, is.Len(l.PopularTools(), 2))
}

func TestLoadPopular_NonPositiveLimit(t *testing.T) {
	l := initLoader(t, seedCatalog(t))

	tools, err := l.LoadPopular(context.Background(), 0, 4.5)

	assert.NilError(t, err)
	assert.Check(t, is.Len(tools, 0))
	assert.Check(t, is.Len(l.PopularTools(), 0))
}

func TestLoadFullCatalog(t *testing.T) {
	l := initLoader(t, seedCatalog(t))

	tools, err := l.LoadFullCatalog(context.Background())

	assert.NilError(t, err)
	assert.DeepEqual(t, toolIDs(tools), []string{"alpha", "beta", "gamma"})
	assert.Equal(t, tools[0].LongDescription, "Alpha draws pictures.")
	assert.DeepEqual(t, tools[0].Pricing, []model.PricingPlan{{Name: "Free", Price: "$0", Features: []string{"10 images"}}})
	assert.Equal(t, tools[1].LongDescription, "")
	assert.Check(t, tools[1].Pricing != nil)
	assert.Check(t, is.Len(tools[1].Pricing, 0))
	assert.Check(t, is.Equal(l.State().ToolCount, 3))
}

func TestLoadFullCatalog_SubResourceFailuresDefault(t *testing.T) {
	store := docstoretest.Wrap(seedCatalog(t))
	l := initLoader(t, store)
	store.FailOn(docstoretest.OpGet, "overview/summary", errBoom)
	store.FailOn(docstoretest.OpList, "/pricing", errBoom)

	tools, err := l.LoadFullCatalog(context.Background())

	assert.NilError(t, err)
	assert.Assert(t, is.Len(tools, 3))
	assert.Equal(t, tools[0].ID, "alpha")
	assert.Equal(t, tools[0].LongDescription, "")
	assert.DeepEqual(t, tools[0].Pricing, []model.PricingPlan{})
}

func TestLoadFullCatalog_PrimaryFailure(t *testing.T) {
	store := docstoretest.Wrap(seedCatalog(t))
	l := initLoader(t, store)
	store.FailOn(docstoretest.OpList, ToolsCollection, errBoom)

	_, err := l.LoadFullCatalog(context.Background())

	assert.ErrorIs(t, err, ErrDataSource)
	assert.ErrorIs(t, l.State().Err, ErrDataSource)
}

func TestLoadFullCatalog_BoundedConcurrency(t *testing.T) {
	l := newTestLoader(t, LoaderParams{MaxConcurrency: 1})
	assert.NilError(t, l.Initialize(context.Background(), seedCatalog(t)))

	tools, err := l.LoadFullCatalog(context.Background())

	assert.NilError(t, err)
	assert.Check(t, is.Len(tools, 3))
	assert.Check(t, is.Equal(tools[0].LongDescription, "Alpha draws pictures."))
}

func TestToolDetails(t *testing.T) {
	l := initLoader(t, seedCatalog(t))

	tool, err := l.ToolDetails(context.Background(), "alpha")

	assert.NilError(t, err)
	assert.Assert(t, tool != nil)
	assert.Equal(t, tool.Name, "Alpha")
	assert.Equal(t, tool.LongDescription, "Alpha draws pictures.")
	assert.Assert(t, tool.Summary != nil)
	assert.Equal(t, tool.Summary.Fields["highlights"], "fast")
	assert.Check(t, is.Len(tool.Pricing, 1))
	assert.Check(t, is.Len(tool.Reviews, 0))

	beta, err := l.ToolDetails(context.Background(), "beta")
	assert.NilError(t, err)
	assert.Check(t, beta.Summary == nil)
	assert.Assert(t, is.Len(beta.Reviews, 1))
	assert.Equal(t, beta.Reviews[0].ID, "r1")
	assert.Equal(t, beta.Reviews[0].Author, "kim")
}

func TestToolDetails_Missing(t *testing.T) {
	l := initLoader(t, seedCatalog(t))

	tool, err := l.ToolDetails(context.Background(), "nope")

	assert.NilError(t, err)
	assert.Check(t, tool == nil)
}

func TestToolDetails_ReviewsFailurePropagates(t *testing.T) {
	store := docstoretest.Wrap(seedCatalog(t))
	l := initLoader(t, store)
	store.FailOn(docstoretest.OpList, "/reviews", errBoom)

	tool, err := l.ToolDetails(context.Background(), "beta")

	assert.Check(t, tool == nil)
	assert.ErrorIs(t, err, ErrSubResource)
	assert.ErrorIs(t, err, errBoom)
}

func TestToolDetails_SummaryAndPricingFailuresDefault(t *testing.T) {
	store := docstoretest.Wrap(seedCatalog(t))
	l := initLoader(t, store)
	store.FailOn(docstoretest.OpGet, "overview/summary", errBoom)
	store.FailOn(docstoretest.OpList, "/pricing", errBoom)

	tool, err := l.ToolDetails(context.Background(), "alpha")

	assert.NilError(t, err)
	assert.Check(t, is.Equal(tool.LongDescription, ""))
	assert.Check(t, tool.Summary == nil)
	assert.DeepEqual(t, tool.Pricing, []model.PricingPlan{})
}

func TestFilterTools_UsesSnapshot(t *testing.T) {
	store := seedCatalog(t)
	l := initLoader(t, store)
	_, err := l.LoadFullCatalog(context.Background())
	assert.NilError(t, err)

	assert.DeepEqual(t, toolIDs(l.FilterTools("", nil)), []string{"alpha", "beta", "gamma"})
	assert.DeepEqual(t, toolIDs(l.FilterTools("pictures", nil)), []string{"alpha"})
	assert.DeepEqual(t, toolIDs(l.FilterTools("", []string{"Writing"})), []string{"beta"})
}

func TestAllTools_ReturnsCopy(t *testing.T) {
	l := initLoader(t, seedCatalog(t))
	_, err := l.LoadFullCatalog(context.Background())
	assert.NilError(t, err)

	tools := l.AllTools()
	tools[0].Name = "mutated"

	assert.Equal(t, l.AllTools()[0].Name, "Alpha")
}

func TestHydrator_ReplacesSnapshotOnce(t *testing.T) {
	l := NewLoader(LoaderParams{})
	l.hydrateDelay = 10 * time.Millisecond
	t.Cleanup(l.Close)

	loaded := make(chan AllToolsLoadedEvent, 2)
	l.Bus().Subscribe(func(e Event) {
		if ev, ok := e.(AllToolsLoadedEvent); ok {
			loaded <- ev
		}
	})

	assert.NilError(t, l.Initialize(context.Background(), seedCatalog(t)))

	select {
	case ev := <-loaded:
		assert.Equal(t, ev.Count, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("hydrator did not run")
	}

	tools := l.AllTools()
	assert.DeepEqual(t, toolIDs(tools), []string{"alpha", "beta", "gamma"})
	assert.Check(t, tools[0].Pricing == nil, "hydrated tools are basic")

	l.startHydrator()
	select {
	case <-loaded:
		t.Fatal("hydrator ran twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHydrator_KeepsLiveSnapshot(t *testing.T) {
	l := initLoader(t, seedCatalog(t))
	loaded := make(chan AllToolsLoadedEvent, 1)
	l.Bus().Subscribe(func(e Event) {
		if ev, ok := e.(AllToolsLoadedEvent); ok {
			loaded <- ev
		}
	})

	updates := make(chan []model.Tool, 4)
	assert.NilError(t, l.Subscribe(context.Background(), func(tools []model.Tool) { updates <- tools }))
	<-updates

	l.hydrateBasic(context.Background())

	assert.Equal(t, (<-loaded).Count, 3)
	assert.DeepEqual(t, toolIDs(l.FilterTools("pictures", nil)), []string{"alpha"})
	alpha := l.AllTools()[0]
	assert.Check(t, is.Equal(alpha.LongDescription, "Alpha draws pictures."))
	assert.Check(t, is.Len(alpha.Pricing, 1))
}

func TestHydrator_KeepsFullCatalog(t *testing.T) {
	l := initLoader(t, seedCatalog(t))
	_, err := l.LoadFullCatalog(context.Background())
	assert.NilError(t, err)

	l.hydrateBasic(context.Background())

	assert.Check(t, is.Len(l.AllTools()[0].Pricing, 1))
	assert.DeepEqual(t, toolIDs(l.FilterTools("pictures", nil)), []string{"alpha"})
}

func TestHydrator_CancelledByClose(t *testing.T) {
	store := docstoretest.Wrap(seedCatalog(t))
	l := NewLoader(LoaderParams{})
	l.hydrateDelay = time.Hour
	assert.NilError(t, l.Initialize(context.Background(), store))

	l.Close()

	assert.Equal(t, store.Calls(docstoretest.OpList), 0)
}

func TestSubscribe_RehydratesOnChange(t *testing.T) {
	store := seedCatalog(t)
	l := initLoader(t, store)

	updates := make(chan []model.Tool, 4)
	err := l.Subscribe(context.Background(), func(tools []model.Tool) { updates <- tools })
	assert.NilError(t, err)

	initial := <-updates
	assert.Check(t, is.Len(initial, 3))
	assert.Check(t, is.Equal(initial[0].LongDescription, "Alpha draws pictures."))

	seedTool(t, store, "delta", map[string]any{"name": "Delta", "rating": 3.0})
	changed := <-updates
	assert.DeepEqual(t, toolIDs(changed), []string{"alpha", "beta", "delta", "gamma"})
	assert.Check(t, is.Len(l.AllTools(), 4))

	l.Unsubscribe()
	l.Unsubscribe()
	seedTool(t, store, "epsilon", map[string]any{"name": "Epsilon"})
	select {
	case <-updates:
		t.Fatal("callback after Unsubscribe")
	default:
	}
	assert.Check(t, is.Len(l.AllTools(), 4))
}

func TestSubscribe_ReplacesEarlierListener(t *testing.T) {
	store := seedCatalog(t)
	l := initLoader(t, store)

	first := make(chan int, 4)
	second := make(chan int, 4)
	assert.NilError(t, l.Subscribe(context.Background(), func(tools []model.Tool) { first <- len(tools) }))
	assert.NilError(t, l.Subscribe(context.Background(), func(tools []model.Tool) { second <- len(tools) }))
	<-first
	<-second

	seedTool(t, store, "delta", map[string]any{"name": "Delta"})

	assert.Equal(t, <-second, 4)
	select {
	case <-first:
		t.Fatal("replaced listener still called")
	default:
	}
}

func TestSubscribe_ErrorIsRecordedAndPublished(t *testing.T) {
	store := docstoretest.Wrap(seedCatalog(t))
	l := initLoader(t, store)
	var errs []error
	l.Bus().Subscribe(func(e Event) {
		if ev, ok := e.(ErrorEvent); ok {
			errs = append(errs, ev.Err)
		}
	})

	assert.NilError(t, l.Subscribe(context.Background(), nil))
	store.BreakSubscriptions(errBoom)

	assert.Assert(t, is.Len(errs, 1))
	assert.ErrorIs(t, errs[0], errBoom)
	assert.ErrorIs(t, l.State().Err, errBoom)
}

func TestSubscribe_AttachFailure(t *testing.T) {
	store := docstoretest.Wrap(seedCatalog(t))
	l := initLoader(t, store)
	store.FailOn(docstoretest.OpSubscribe, "", errBoom)

	err := l.Subscribe(context.Background(), nil)

	assert.ErrorIs(t, err, ErrDataSource)
}
