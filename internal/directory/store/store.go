// Package store defines the document-store contract the directory runs on.
// The backing store is a plain collection/key/document space with point reads,
// unconditional upserts, deletes, and full-collection scans. No multi-document
// transactions are assumed; the service layer documents the races that fall
// out of that.
package store

import "context"

// Collection names, one per entity type. Kept here so every implementation
// and the service agree on them.
const (
	ColInstitutions   = "institutions"
	ColAdministrators = "administrators"
	ColGuardians      = "guardians"
	ColStudents       = "students"
	ColDrivers        = "drivers"
	ColVehicles       = "vehicles"
)

// DocStore is the minimal contract required from the remote document store.
// Documents are opaque JSON. Get returns sentinel.ErrNotFound for missing
// keys; Put is an upsert; Delete of a missing key is a no-op; Scan returns
// every document in the collection keyed by document key.
type DocStore interface {
	Get(ctx context.Context, collection, key string) ([]byte, error)
	Put(ctx context.Context, collection, key string, doc []byte) error
	Delete(ctx context.Context, collection, key string) error
	Scan(ctx context.Context, collection string) (map[string][]byte, error)
}
