package saved_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/aidir/internal/catalog"
	"github.com/nikbrunner/aidir/internal/docstore"
	"github.com/nikbrunner/aidir/internal/docstore/docstoretest"
	"github.com/nikbrunner/aidir/internal/model"
	"github.com/nikbrunner/aidir/internal/saved"
)

type fakeDetails struct {
	tools map[string]*model.Tool
	err   error
}

func (f fakeDetails) ToolDetails(_ context.Context, id string) (*model.Tool, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tools[id], nil
}

// clock returns a Now func that advances one minute per call.
func clock() func() time.Time {
	t := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newStore(docs docstore.Store, details saved.DetailFetcher) *saved.Store {
	return saved.New(saved.Params{Docs: docs, Details: details, Now: clock()})
}

func details(ids ...string) fakeDetails {
	f := fakeDetails{tools: map[string]*model.Tool{}}
	for _, id := range ids {
		f.tools[id] = &model.Tool{ID: id, Name: "Tool " + id}
	}
	return f
}

func TestSave_RequiresUser(t *testing.T) {
	s := newStore(docstore.NewMemory(), details())

	err := s.Save(context.Background(), "", "a")

	assert.ErrorIs(t, err, saved.ErrUserRequired)
}

func TestSave_UpsertKeepsOneRecord(t *testing.T) {
	docs := docstore.NewMemory()
	s := newStore(docs, details("a"))
	ctx := context.Background()

	assert.NilError(t, s.Save(ctx, "u1", "a"))
	assert.NilError(t, s.Save(ctx, "u1", "a"))

	records, err := docs.List(ctx, "users/u1/favorites")
	assert.NilError(t, err)
	assert.Assert(t, is.Len(records, 1))
	assert.Equal(t, records[0].ID, "a")
	// Second save at 12:02 wins.
	assert.Equal(t, records[0].Data["savedAt"], "2024-05-01T12:02:00Z")
}

func TestSave_WriteFailure(t *testing.T) {
	docs := docstoretest.Wrap(docstore.NewMemory())
	docs.FailOn(docstoretest.OpSet, "favorites", errors.New("denied"))
	s := newStore(docs, details("a"))

	err := s.Save(context.Background(), "u1", "a")

	assert.ErrorIs(t, err, catalog.ErrDataSource)
}

func TestList_NewestFirstAndMissingOmitted(t *testing.T) {
	docs := docstore.NewMemory()
	s := newStore(docs, details("a", "c"))
	ctx := context.Background()

	assert.NilError(t, s.Save(ctx, "u1", "a"))
	assert.NilError(t, s.Save(ctx, "u1", "b")) // deleted from the catalog
	assert.NilError(t, s.Save(ctx, "u1", "c"))
	assert.NilError(t, s.Save(ctx, "u2", "a"))

	list, err := s.List(ctx, "u1")

	assert.NilError(t, err)
	assert.Assert(t, is.Len(list, 2))
	assert.Equal(t, list[0].ToolID, "c")
	assert.Equal(t, list[1].ToolID, "a")
	assert.Equal(t, list[0].Tool.Name, "Tool c")
	assert.Equal(t, list[0].UserID, "u1")
	assert.Assert(t, list[0].SavedAt.After(list[1].SavedAt))
}

func TestList_Empty(t *testing.T) {
	s := newStore(docstore.NewMemory(), details())

	list, err := s.List(context.Background(), "nobody")

	assert.NilError(t, err)
	assert.Check(t, is.Len(list, 0))
}

func TestList_DetailFailurePropagates(t *testing.T) {
	docs := docstore.NewMemory()
	boom := errors.New("reviews down")
	s := newStore(docs, fakeDetails{err: boom})
	assert.NilError(t, s.Save(context.Background(), "u1", "a"))

	_, err := s.List(context.Background(), "u1")

	assert.ErrorIs(t, err, boom)
}

func TestList_WithLoader(t *testing.T) {
	ctx := context.Background()
	docs := docstore.NewMemory()
	assert.NilError(t, docs.Set(ctx, "ai-tools/x", map[string]any{"name": "X", "rating": 4.9}, false))
	loader := catalog.NewLoader(catalog.LoaderParams{})
	t.Cleanup(loader.Close)
	assert.NilError(t, loader.Initialize(ctx, docs))

	s := newStore(docs, loader)
	assert.NilError(t, s.Save(ctx, "u1", "x"))

	list, err := s.List(ctx, "u1")

	assert.NilError(t, err)
	assert.Assert(t, is.Len(list, 1))
	assert.Equal(t, list[0].Tool.Name, "X")
}

func TestRemove(t *testing.T) {
	docs := docstore.NewMemory()
	s := newStore(docs, details("a"))
	ctx := context.Background()
	assert.NilError(t, s.Save(ctx, "u1", "a"))

	assert.NilError(t, s.Remove(ctx, "u1", "a"))
	assert.NilError(t, s.Remove(ctx, "u1", "a"))

	list, err := s.List(ctx, "u1")
	assert.NilError(t, err)
	assert.Check(t, is.Len(list, 0))
	assert.ErrorIs(t, s.Remove(ctx, "", "a"), saved.ErrUserRequired)
}

func TestEnsureMember(t *testing.T) {
	docs := docstore.NewMemory()
	s := newStore(docs, details())
	ctx := context.Background()

	assert.NilError(t, s.EnsureMember(ctx, "u1", "kim@example.com"))
	assert.NilError(t, s.EnsureMember(ctx, "u1", "other@example.com"))

	doc, err := docs.Get(ctx, "users/u1")
	assert.NilError(t, err)
	assert.Assert(t, doc != nil)
	assert.Equal(t, doc.Data["email"], "kim@example.com")
	assert.Equal(t, doc.Data["created_at"], "2024-05-01T12:01:00Z")
}
