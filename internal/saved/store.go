// Package saved keeps each member's favourite tools in the document store.
package saved

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nikbrunner/aidir/internal/catalog"
	"github.com/nikbrunner/aidir/internal/docstore"
	"github.com/nikbrunner/aidir/internal/model"
)

var (
	// ErrUserRequired is returned when a call is made without a user ID.
	ErrUserRequired = errors.New("saved: user id required")
	// ErrToolRequired is returned when a call is made without a tool ID.
	ErrToolRequired = errors.New("saved: tool id required")
)

const (
	usersCollection = "users"
	favoritesSub    = "favorites"
)

// DetailFetcher resolves a tool ID to its full record.
// A nil tool with a nil error means the tool no longer exists.
type DetailFetcher interface {
	ToolDetails(ctx context.Context, toolID string) (*model.Tool, error)
}

// Store reads and writes saved-tool records.
type Store struct {
	docs    docstore.Store
	details DetailFetcher
	logger  *zap.Logger
	now     func() time.Time
}

// Params holds parameters for creating a Store.
type Params struct {
	Docs    docstore.Store
	Details DetailFetcher
	Logger  *zap.Logger      // optional
	Now     func() time.Time // optional, time.Now if nil
}

// New creates a Store.
func New(params Params) *Store {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		docs:    params.Docs,
		details: params.Details,
		logger:  logger.Named("saved"),
		now:     now,
	}
}

func favoritesPath(userID string) string {
	return docstore.Join(usersCollection, userID, favoritesSub)
}

// Save records toolID as a favourite of userID. Saving again only refreshes
// savedAt, so there is at most one record per pair.
func (s *Store) Save(ctx context.Context, userID, toolID string) error {
	if userID == "" {
		return ErrUserRequired
	}
	if toolID == "" {
		return ErrToolRequired
	}

	path := docstore.Join(favoritesPath(userID), toolID)
	data := map[string]any{
		"savedAt": s.now().UTC().Format(time.RFC3339Nano),
	}
	if err := s.docs.Set(ctx, path, data, true); err != nil {
		s.logger.Error("save failed", zap.String("user", userID), zap.String("tool", toolID), zap.Error(err))
		return fmt.Errorf("%w: save %s: %w", catalog.ErrDataSource, toolID, err)
	}
	s.logger.Debug("tool saved", zap.String("user", userID), zap.String("tool", toolID))
	return nil
}

// Remove deletes the favourite record. Removing a tool that was never saved
// is not an error.
func (s *Store) Remove(ctx context.Context, userID, toolID string) error {
	if userID == "" {
		return ErrUserRequired
	}
	if toolID == "" {
		return ErrToolRequired
	}
	if err := s.docs.Delete(ctx, docstore.Join(favoritesPath(userID), toolID)); err != nil {
		return fmt.Errorf("%w: remove %s: %w", catalog.ErrDataSource, toolID, err)
	}
	return nil
}

// List returns the user's saved tools with their details, most recently
// saved first. Records whose tool no longer exists are left out. Any other
// detail failure fails the whole listing.
func (s *Store) List(ctx context.Context, userID string) ([]model.SavedTool, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}

	docs, err := s.docs.List(ctx, favoritesPath(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: list saved tools: %w", catalog.ErrDataSource, err)
	}

	records := make([]model.SavedTool, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range docs {
		records[i] = model.SavedTool{UserID: userID, ToolID: d.ID}
		if ts, ok := docstore.Time(d.Data["savedAt"]); ok {
			records[i].SavedAt = ts
		} else {
			s.logger.Warn("saved record without savedAt", zap.String("user", userID), zap.String("tool", d.ID))
		}

		rec := &records[i]
		g.Go(func() error {
			tool, err := s.details.ToolDetails(gctx, rec.ToolID)
			if err != nil {
				return err
			}
			rec.Tool = tool
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]model.SavedTool, 0, len(records))
	for _, r := range records {
		if r.Tool == nil {
			s.logger.Debug("saved tool no longer exists", zap.String("tool", r.ToolID))
			continue
		}
		result = append(result, r)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SavedAt.After(result[j].SavedAt)
	})
	return result, nil
}

// EnsureMember creates the member document for userID if it does not exist.
// An existing member document is left untouched.
func (s *Store) EnsureMember(ctx context.Context, userID, email string) error {
	if userID == "" {
		return ErrUserRequired
	}

	path := docstore.Join(usersCollection, userID)
	doc, err := s.docs.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: read member %s: %w", catalog.ErrDataSource, userID, err)
	}
	if doc != nil {
		return nil
	}

	data := map[string]any{
		"email":      email,
		"created_at": s.now().UTC().Format(time.RFC3339Nano),
	}
	if err := s.docs.Set(ctx, path, data, false); err != nil {
		return fmt.Errorf("%w: create member %s: %w", catalog.ErrDataSource, userID, err)
	}
	s.logger.Info("member created", zap.String("user", userID))
	return nil
}
