package contact

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	Q      string
	Limit  int
	Offset int
}

// BulkError reports a per-record failure inside a bulk operation. Index
// refers to the position in the input slice.
type BulkError struct {
	Index int
	Err   error
}

// Update pairs an existing contact id with its replacement state.
type Update struct {
	ID      uuid.UUID
	Contact Contact
}

// Repository is the contact store collaborator. Bulk operations attempt
// every record: per-record failures come back as BulkError values, while the
// trailing error is reserved for whole-batch unavailability.
type Repository interface {
	List(ctx context.Context) ([]Contact, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]Contact, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (Contact, error)
	Create(ctx context.Context, c Contact) (Contact, error)
	BulkCreate(ctx context.Context, cs []Contact) ([]Contact, []BulkError, error)
	BulkUpdate(ctx context.Context, us []Update) ([]Contact, []BulkError, error)
}
