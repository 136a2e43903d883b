// Package catalog loads the AI tools catalog from a document store and keeps
// an in-memory snapshot of it fresh.
package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nikbrunner/aidir/internal/docstore"
	"github.com/nikbrunner/aidir/internal/model"
	"github.com/nikbrunner/aidir/internal/search"
)

// Popular selection defaults.
const (
	DefaultPopularLimit = 6
	DefaultMinRating    = 4.7
)

// hydrateDelay is how long the background hydrator waits after the
// popular tools are in, so the first render is not competing with it.
const hydrateDelay = 3 * time.Second

// Status is the loader's initialization state.
type Status int

const (
	StatusUninitialized Status = iota
	StatusInitializing
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// State is a point-in-time view of the loader.
type State struct {
	Status      Status
	Loading     bool
	Err         error
	Initialized bool
	ToolCount   int
}

// Loader owns the catalog snapshots. allTools and popularTools are only ever
// replaced wholesale; callers receive copies.
type Loader struct {
	logger         *zap.Logger
	bus            *Bus
	metrics        *Metrics
	logo           model.LogoConfig
	popularLimit   int
	minRating      float64
	maxConcurrency int
	hydrateDelay   time.Duration

	mu           sync.RWMutex
	store        docstore.Store
	status       Status
	initErr      error
	lastErr      error
	allTools     []model.Tool
	popularTools []model.Tool
	detailed     bool // allTools carries summaries and pricing
	hydrating    bool
	initDone     chan struct{}

	loading atomic.Int32

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup

	subMu     sync.Mutex
	subGen    atomic.Uint64
	unsub     docstore.Unsubscribe
	deliverMu sync.RWMutex
}

// LoaderParams holds parameters for creating a Loader.
type LoaderParams struct {
	Logger         *zap.Logger       // optional, no-op if nil
	Bus            *Bus              // optional, a private bus if nil
	Metrics        *Metrics          // optional
	Logo           *model.LogoConfig // optional, DefaultLogoConfig if nil
	PopularLimit   int               // optional, DefaultPopularLimit if zero
	MinRating      float64           // optional, DefaultMinRating if zero
	MaxConcurrency int               // optional, unlimited if zero
}

// NewLoader creates an uninitialized Loader.
func NewLoader(params LoaderParams) *Loader {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := params.Bus
	if bus == nil {
		bus = NewBus()
	}
	logo := model.DefaultLogoConfig()
	if params.Logo != nil {
		logo = *params.Logo
	}
	limit := params.PopularLimit
	if limit == 0 {
		limit = DefaultPopularLimit
	}
	minRating := params.MinRating
	if minRating == 0 {
		minRating = DefaultMinRating
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		logger:         logger.Named("catalog"),
		bus:            bus,
		metrics:        params.Metrics,
		logo:           logo,
		popularLimit:   limit,
		minRating:      minRating,
		maxConcurrency: params.MaxConcurrency,
		hydrateDelay:   hydrateDelay,
		allTools:       []model.Tool{},
		popularTools:   []model.Tool{},
		bgCtx:          ctx,
		bgCancel:       cancel,
	}
}

// Bus returns the bus lifecycle events are published on.
func (l *Loader) Bus() *Bus {
	return l.bus
}

// Initialize binds the loader to store and loads the popular tools.
// It returns immediately if the loader is already initialized. A call made
// while another is in progress waits for it and returns its outcome, or
// ctx.Err() if ctx ends first. A loader whose initialization failed stays
// failed: later calls return the original error without retrying.
func (l *Loader) Initialize(ctx context.Context, store docstore.Store) error {
	l.mu.Lock()
	switch l.status {
	case StatusReady:
		l.mu.Unlock()
		l.logger.Debug("loader already initialized")
		return nil
	case StatusInitializing:
		done := l.initDone
		l.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		l.mu.RLock()
		defer l.mu.RUnlock()
		return l.initErr
	case StatusFailed:
		err := l.initErr
		l.mu.Unlock()
		return err
	}
	if store == nil {
		l.status = StatusFailed
		l.initErr = ErrConfiguration
		l.lastErr = ErrConfiguration
		l.mu.Unlock()
		l.bus.Publish(ReadyEvent{Success: false, Err: ErrConfiguration})
		return ErrConfiguration
	}
	l.store = store
	l.status = StatusInitializing
	l.initDone = make(chan struct{})
	l.mu.Unlock()

	_, err := l.LoadPopular(ctx, l.popularLimit, l.minRating)

	l.mu.Lock()
	if err != nil {
		l.status = StatusFailed
		l.initErr = err
		l.lastErr = err
	} else {
		l.status = StatusReady
	}
	close(l.initDone)
	l.mu.Unlock()

	if err != nil {
		l.logger.Error("loader initialization failed", zap.Error(err))
		l.bus.Publish(ReadyEvent{Success: false, Err: err})
		return err
	}

	l.logger.Info("loader ready")
	l.bus.Publish(ReadyEvent{Success: true})
	l.startHydrator()
	return nil
}

// Close stops background work and any live subscription.
func (l *Loader) Close() {
	l.Unsubscribe()
	l.bgCancel()
	l.bgWG.Wait()
}

// State reports the loader's status and snapshot size.
func (l *Loader) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return State{
		Status:      l.status,
		Loading:     l.loading.Load() > 0,
		Err:         l.lastErr,
		Initialized: l.status == StatusReady,
		ToolCount:   len(l.allTools),
	}
}

// AllTools returns a copy of the catalog snapshot.
func (l *Loader) AllTools() []model.Tool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]model.Tool(nil), l.allTools...)
}

// PopularTools returns a copy of the last popular selection.
func (l *Loader) PopularTools() []model.Tool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]model.Tool(nil), l.popularTools...)
}

// FilterTools narrows the current snapshot without touching the store.
func (l *Loader) FilterTools(query string, categories []string) []model.Tool {
	return search.Filter(l.AllTools(), query, categories)
}

// LoadFullCatalog fetches every tool with its summary and pricing and
// replaces the snapshot. Summary and pricing failures fall back to empty
// values; only a failure to list the tools themselves is returned.
func (l *Loader) LoadFullCatalog(ctx context.Context) (tools []model.Tool, err error) {
	start := time.Now()
	defer func() { l.metrics.observeLoad("full", start, err) }()
	defer l.track()()

	store, err := l.storeHandle()
	if err != nil {
		return nil, err
	}

	l.logger.Debug("loading full catalog")
	docs, err := store.List(ctx, ToolsCollection)
	if err != nil {
		err = fmt.Errorf("%w: list tools: %w", ErrDataSource, err)
		l.setErr(err)
		return nil, err
	}

	tools = l.hydrateAll(ctx, store, docs)
	l.replaceAll(tools)
	l.logger.Info("catalog loaded", zap.Int("tools", len(tools)))
	return append([]model.Tool(nil), tools...), nil
}

// hydrateAll decodes docs and fills in summary and pricing for every tool
// concurrently. It returns once every read has finished.
func (l *Loader) hydrateAll(ctx context.Context, store docstore.Store, docs []docstore.Document) []model.Tool {
	tools := make([]model.Tool, 0, len(docs))
	for _, d := range docs {
		t, err := decodeTool(d, l.logo)
		if err != nil {
			l.logger.Warn("skipping malformed tool document", zap.String("id", d.ID), zap.Error(err))
			continue
		}
		tools = append(tools, t)
	}

	g, gctx := errgroup.WithContext(ctx)
	if l.maxConcurrency > 0 {
		g.SetLimit(l.maxConcurrency)
	}
	for i := range tools {
		t := &tools[i]
		g.Go(func() error {
			summary := fetchSummary(gctx, store, t.ID)
			if summary.Err != nil {
				l.metrics.subResourceFailed("summary")
				l.logger.Debug("summary unavailable", zap.String("id", t.ID), zap.Error(summary.Err))
			}
			if s := summary.Or(nil); s != nil {
				t.LongDescription = s.LongDescription
			} else {
				t.LongDescription = ""
			}
			return nil
		})
		g.Go(func() error {
			pricing := fetchPricing(gctx, store, t.ID)
			if pricing.Err != nil {
				l.metrics.subResourceFailed("pricing")
				l.logger.Debug("pricing unavailable", zap.String("id", t.ID), zap.Error(pricing.Err))
			}
			t.Pricing = pricing.Or([]model.PricingPlan{})
			return nil
		})
	}
	_ = g.Wait()

	return tools
}

// ToolDetails fetches one tool with its summary, pricing and reviews.
// A missing tool yields (nil, nil). Summary and pricing failures fall back
// to empty values; a reviews failure is returned wrapped in ErrSubResource.
func (l *Loader) ToolDetails(ctx context.Context, toolID string) (*model.Tool, error) {
	defer l.track()()

	store, err := l.storeHandle()
	if err != nil {
		return nil, err
	}

	doc, err := store.Get(ctx, ToolPath(toolID))
	if err != nil {
		err = fmt.Errorf("%w: get tool %s: %w", ErrDataSource, toolID, err)
		l.setErr(err)
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	tool, err := decodeTool(*doc, l.logo)
	if err != nil {
		err = fmt.Errorf("%w: decode tool %s: %w", ErrDataSource, toolID, err)
		l.setErr(err)
		return nil, err
	}

	var (
		summary result[*model.Summary]
		pricing result[[]model.PricingPlan]
		reviews result[[]model.Review]
		wg      sync.WaitGroup
	)
	wg.Add(3)
	go func() { defer wg.Done(); summary = fetchSummary(ctx, store, toolID) }()
	go func() { defer wg.Done(); pricing = fetchPricing(ctx, store, toolID) }()
	go func() { defer wg.Done(); reviews = fetchReviews(ctx, store, toolID) }()
	wg.Wait()

	if summary.Err != nil {
		l.metrics.subResourceFailed("summary")
		l.logger.Warn("summary read failed", zap.String("id", toolID), zap.Error(summary.Err))
	}
	tool.Summary = summary.Or(nil)
	if tool.Summary != nil {
		tool.LongDescription = tool.Summary.LongDescription
	}

	if pricing.Err != nil {
		l.metrics.subResourceFailed("pricing")
		l.logger.Warn("pricing read failed", zap.String("id", toolID), zap.Error(pricing.Err))
	}
	tool.Pricing = pricing.Or([]model.PricingPlan{})

	if reviews.Err != nil {
		l.metrics.subResourceFailed("reviews")
		err := fmt.Errorf("%w: reviews of %s: %w", ErrSubResource, toolID, reviews.Err)
		l.setErr(err)
		return nil, err
	}
	tool.Reviews = reviews.Value

	return &tool, nil
}

func (l *Loader) storeHandle() (docstore.Store, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.store == nil {
		return nil, ErrNotInitialized
	}
	return l.store, nil
}

// replaceAll installs a snapshot with summaries and pricing.
func (l *Loader) replaceAll(tools []model.Tool) {
	l.mu.Lock()
	l.allTools = tools
	l.detailed = true
	l.mu.Unlock()
	l.metrics.setToolCount(len(tools))
}

// replaceBasic installs a basic snapshot unless a detailed one is already
// in place. It reports the size of the snapshot left installed and whether
// tools replaced it.
func (l *Loader) replaceBasic(tools []model.Tool) (int, bool) {
	l.mu.Lock()
	if l.detailed {
		n := len(l.allTools)
		l.mu.Unlock()
		return n, false
	}
	l.allTools = tools
	l.mu.Unlock()
	l.metrics.setToolCount(len(tools))
	return len(tools), true
}

func (l *Loader) setErr(err error) {
	l.mu.Lock()
	l.lastErr = err
	l.mu.Unlock()
}

// track marks a load as in flight until the returned func is called.
func (l *Loader) track() func() {
	l.loading.Add(1)
	return func() { l.loading.Add(-1) }
}
