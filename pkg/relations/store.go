package relations

import (
	"context"

	"github.com/reductstore/reduct-operator/pkg/types"
)

// Store is the shared relation-data store. Each side of a relation owns only
// the fields it publishes: SetLocal overwrites this controller's owned fields
// and never touches the peer's, so concurrent peers cannot lose each other's
// updates. There are no cross-invocation locks; correctness comes from
// per-field ownership plus idempotent rewriting.
type Store interface {
	// IDs returns the identifiers of every established relation, ordered by
	// stable relation ID. Cheap index read; each record is fetched
	// independently so one unreadable relation cannot hide the others.
	IDs(ctx context.Context) ([]string, error)

	// List returns every established relation, ordered by stable relation ID
	List(ctx context.Context) ([]*types.RelationRecord, error)

	// Get returns one relation by ID
	Get(ctx context.Context, id string) (*types.RelationRecord, error)

	// SetLocal overwrites the owned fields of a relation. Writing the same
	// fields twice is a no-op.
	SetLocal(ctx context.Context, id string, fields map[string]string) error

	// Put creates or replaces a whole relation record. The platform uses
	// this when relations are established or the peer publishes data.
	Put(ctx context.Context, record *types.RelationRecord) error

	// Delete removes a departed relation
	Delete(ctx context.Context, id string) error

	// Close releases the store
	Close() error
}
