// Package firestoredoc implements the document store on Cloud Firestore, the
// production backing store for the directory. Documents are written as a
// single bytes field so the JSON codec stays the service layer's concern and
// Firestore never needs to understand entity shapes.
package firestoredoc

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"furgon/pkg/platform/sentinel"
)

// document is the Firestore representation of one directory record.
type document struct {
	Doc []byte `firestore:"doc"`
}

type DocStore struct {
	client *firestore.Client
	// prefix namespaces collections so several environments can share a
	// project.
	prefix string
}

type Config struct {
	ProjectID        string
	CollectionPrefix string
	// CredentialsFile is optional; empty means application default
	// credentials.
	CredentialsFile string
}

// New connects to Firestore. Callers own the returned store's lifecycle and
// must Close it.
func New(ctx context.Context, cfg Config) (*DocStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &DocStore{client: client, prefix: cfg.CollectionPrefix}, nil
}

func (s *DocStore) collection(name string) *firestore.CollectionRef {
	return s.client.Collection(s.prefix + name)
}

func (s *DocStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	snap, err := s.collection(collection).Doc(key).Get(ctx)
	if err != nil {
		return nil, translate(err, collection, key)
	}
	var d document
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, key, err)
	}
	return d.Doc, nil
}

func (s *DocStore) Put(ctx context.Context, collection, key string, doc []byte) error {
	_, err := s.collection(collection).Doc(key).Set(ctx, document{Doc: doc})
	if err != nil {
		return translate(err, collection, key)
	}
	return nil
}

func (s *DocStore) Delete(ctx context.Context, collection, key string) error {
	// Firestore deletes are idempotent, matching the contract's no-op
	// semantics for missing keys.
	_, err := s.collection(collection).Doc(key).Delete(ctx)
	if err != nil {
		return translate(err, collection, key)
	}
	return nil
}

func (s *DocStore) Scan(ctx context.Context, collection string) (map[string][]byte, error) {
	iter := s.collection(collection).Documents(ctx)
	defer iter.Stop()

	out := make(map[string][]byte)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, translate(err, collection, "")
		}
		var d document
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, snap.Ref.ID, err)
		}
		out[snap.Ref.ID] = d.Doc
	}
}

func (s *DocStore) Close() error { return s.client.Close() }

// translate maps Firestore RPC errors onto the store sentinels.
func translate(err error, collection, key string) error {
	switch status.Code(err) {
	case codes.NotFound:
		return sentinel.ErrNotFound
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return fmt.Errorf("firestore %s/%s: %v: %w", collection, key, err, sentinel.ErrUnavailable)
	default:
		return fmt.Errorf("firestore %s/%s: %w", collection, key, err)
	}
}
