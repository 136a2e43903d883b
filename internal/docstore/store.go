// Package docstore is the document-store client the catalog reads from.
//
// Paths are slash separated. A collection path has an odd number of
// segments ("ai-tools", "ai-tools/abc/pricing"); a document path has an even
// number ("ai-tools/abc", "users/u1/favorites/abc").
package docstore

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidPath is returned when a path has the wrong shape for the call.
var ErrInvalidPath = errors.New("invalid document path")

// Document is a single stored document.
type Document struct {
	ID   string
	Path string
	Data map[string]any
}

// Query narrows a collection listing.
// An empty Field means no filter and no ordering. Only documents whose Field
// holds a number match; strings such as "4.9" are left out, as Firestore's
// typed comparison does.
type Query struct {
	Field      string  // numeric field compared with Min
	Min        float64 // Field >= Min
	Descending bool    // order by Field descending
	Limit      int     // 0 = unlimited
}

// Unsubscribe detaches a live listener. Calling it more than once is safe.
type Unsubscribe func()

// Store is the document-store client.
type Store interface {
	// List returns every document directly inside collection.
	List(ctx context.Context, collection string) ([]Document, error)
	// Get returns the document at path, or nil when it does not exist.
	Get(ctx context.Context, path string) (*Document, error)
	// Query lists collection narrowed by q.
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	// Subscribe calls onChange with the full collection listing whenever it
	// changes, starting with the current contents. onError is called at most
	// once, after which the listener is dead.
	Subscribe(ctx context.Context, collection string, onChange func([]Document), onError func(error)) (Unsubscribe, error)
	// Set writes data at path. With merge, existing fields not in data survive.
	Set(ctx context.Context, path string, data map[string]any, merge bool) error
	// Delete removes the document at path. Missing documents are not an error.
	Delete(ctx context.Context, path string) error
	// Close releases the client.
	Close() error
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Split returns the parent collection and ID of a document path.
func Split(path string) (collection, id string, err error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments)%2 != 0 || hasEmpty(segments) {
		return "", "", ErrInvalidPath
	}
	return strings.Join(segments[:len(segments)-1], "/"), segments[len(segments)-1], nil
}

// ValidCollection reports whether path names a collection.
func ValidCollection(path string) bool {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	return len(segments)%2 == 1 && !hasEmpty(segments)
}

func hasEmpty(segments []string) bool {
	for _, s := range segments {
		if s == "" {
			return true
		}
	}
	return false
}

// numeric converts stored numbers to float64.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}
