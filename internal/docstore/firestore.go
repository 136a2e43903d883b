package docstore

import (
	"context"
	"errors"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore implements Store on Cloud Firestore.
type Firestore struct {
	client *firestore.Client
}

// FirestoreParams holds parameters for connecting to Firestore.
type FirestoreParams struct {
	ProjectID       string
	CredentialsFile string // optional, application default credentials if empty
}

// NewFirestore connects to the given project.
func NewFirestore(ctx context.Context, params FirestoreParams) (*Firestore, error) {
	var opts []option.ClientOption
	if params.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(params.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, params.ProjectID, opts...)
	if err != nil {
		return nil, err
	}
	return &Firestore{client: client}, nil
}

// List implements Store.
func (f *Firestore) List(ctx context.Context, collection string) ([]Document, error) {
	return f.Query(ctx, collection, Query{})
}

// Get implements Store.
func (f *Firestore) Get(ctx context.Context, path string) (*Document, error) {
	if _, _, err := Split(path); err != nil {
		return nil, err
	}
	snap, err := f.client.Doc(path).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d := fromSnapshot(snap)
	return &d, nil
}

// Query implements Store.
func (f *Firestore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if !ValidCollection(collection) {
		return nil, ErrInvalidPath
	}
	snaps, err := f.query(collection, q).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return fromSnapshots(snaps), nil
}

func (f *Firestore) query(collection string, q Query) firestore.Query {
	query := f.client.Collection(collection).Query
	if q.Field != "" {
		query = query.Where(q.Field, ">=", q.Min)
		if q.Descending {
			query = query.OrderBy(q.Field, firestore.Desc)
		}
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return query
}

// Subscribe implements Store.
func (f *Firestore) Subscribe(ctx context.Context, collection string, onChange func([]Document), onError func(error)) (Unsubscribe, error) {
	if !ValidCollection(collection) {
		return nil, ErrInvalidPath
	}
	ctx, cancel := context.WithCancel(ctx)
	it := f.client.Collection(collection).Snapshots(ctx)

	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err == nil {
				var snaps []*firestore.DocumentSnapshot
				snaps, err = snap.Documents.GetAll()
				if err == nil {
					if ctx.Err() != nil {
						return
					}
					onChange(fromSnapshots(snaps))
					continue
				}
			}
			if ctx.Err() != nil || status.Code(err) == codes.Canceled || errors.Is(err, context.Canceled) {
				return
			}
			if onError != nil {
				onError(err)
			}
			return
		}
	}()

	var once sync.Once
	return func() { once.Do(cancel) }, nil
}

// Set implements Store.
func (f *Firestore) Set(ctx context.Context, path string, data map[string]any, merge bool) error {
	if _, _, err := Split(path); err != nil {
		return err
	}
	var err error
	if merge {
		_, err = f.client.Doc(path).Set(ctx, data, firestore.MergeAll)
	} else {
		_, err = f.client.Doc(path).Set(ctx, data)
	}
	return err
}

// Delete implements Store.
func (f *Firestore) Delete(ctx context.Context, path string) error {
	if _, _, err := Split(path); err != nil {
		return err
	}
	_, err := f.client.Doc(path).Delete(ctx)
	return err
}

// Close implements Store.
func (f *Firestore) Close() error {
	return f.client.Close()
}

func fromSnapshot(snap *firestore.DocumentSnapshot) Document {
	return Document{
		ID:   snap.Ref.ID,
		Path: Join(collectionPath(snap.Ref.Parent), snap.Ref.ID),
		Data: snap.Data(),
	}
}

func fromSnapshots(snaps []*firestore.DocumentSnapshot) []Document {
	docs := make([]Document, 0, len(snaps))
	for _, s := range snaps {
		docs = append(docs, fromSnapshot(s))
	}
	return docs
}

// collectionPath rebuilds the relative path of a collection reference.
func collectionPath(c *firestore.CollectionRef) string {
	if c.Parent == nil {
		return c.ID
	}
	return Join(collectionPath(c.Parent.Parent), c.Parent.ID, c.ID)
}
