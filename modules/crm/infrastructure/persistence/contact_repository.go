package persistence

import (
	"context"
	"errors"
	"strings"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/aggregates/contact"
	"github.com/dazedniteman/pathpal-crm/pkg/composables"
)

const (
	contactColumns = `id, name, email, instagram_handle, followers, tags, bio, notes, created_at, updated_at`

	selectContactsQuery = `SELECT ` + contactColumns + ` FROM contacts ORDER BY created_at, id`

	selectContactsPaginatedQuery = `
		SELECT ` + contactColumns + ` FROM contacts
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		ORDER BY created_at, id
		OFFSET $2 LIMIT $3`

	countContactsQuery = `
		SELECT COUNT(*) FROM contacts
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')`

	selectContactByIDQuery = `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`

	insertContactQuery = `
		INSERT INTO contacts (name, email, instagram_handle, followers, tags, bio, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + contactColumns

	updateContactQuery = `
		UPDATE contacts
		SET name = $2, email = $3, instagram_handle = $4, followers = $5,
		    tags = $6, bio = $7, notes = $8, updated_at = now()
		WHERE id = $1
		RETURNING ` + contactColumns
)

type ContactRepository struct{}

func NewContactRepository() contact.Repository {
	return &ContactRepository{}
}

func (r *ContactRepository) List(ctx context.Context) ([]contact.Contact, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, selectContactsQuery)
	if err != nil {
		return nil, gerrors.Wrap(err, "list contacts")
	}
	defer rows.Close()
	return scanContacts(rows)
}

func (r *ContactRepository) GetPaginated(ctx context.Context, params *contact.FindParams) ([]contact.Contact, int64, error) {
	if params == nil {
		params = &contact.FindParams{}
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	q := strings.TrimSpace(params.Q)

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}

	rows, err := tx.Query(ctx, selectContactsPaginatedQuery, q, offset, limit)
	if err != nil {
		return nil, 0, gerrors.Wrap(err, "list contacts paginated")
	}
	defer rows.Close()
	out, err := scanContacts(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := tx.QueryRow(ctx, countContactsQuery, q).Scan(&total); err != nil {
		return nil, 0, gerrors.Wrap(err, "count contacts")
	}
	return out, total, nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id uuid.UUID) (contact.Contact, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return contact.Contact{}, err
	}
	c, err := scanContact(tx.QueryRow(ctx, selectContactByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contact.Contact{}, contact.ErrNotFound
		}
		return contact.Contact{}, gerrors.Wrap(err, "get contact")
	}
	return c, nil
}

func (r *ContactRepository) Create(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return contact.Contact{}, err
	}
	return r.insert(ctx, tx, c)
}

// BulkCreate attempts every record. Each insert runs as its own implicit
// transaction against the pool, so one failure cannot poison its siblings.
// The trailing error reports whole-batch unavailability only.
func (r *ContactRepository) BulkCreate(ctx context.Context, cs []contact.Contact) ([]contact.Contact, []contact.BulkError, error) {
	pool, err := composables.UsePool(ctx)
	if err != nil {
		return nil, nil, err
	}

	created := make([]contact.Contact, 0, len(cs))
	var failures []contact.BulkError
	for i, c := range cs {
		saved, err := r.insert(ctx, pool, c)
		if err != nil {
			if batchUnavailable(err) {
				return created, failures, gerrors.Wrap(err, "bulk create")
			}
			failures = append(failures, contact.BulkError{Index: i, Err: err})
			continue
		}
		created = append(created, saved)
	}
	return created, failures, nil
}

// BulkUpdate mirrors BulkCreate's partial-success contract.
func (r *ContactRepository) BulkUpdate(ctx context.Context, us []contact.Update) ([]contact.Contact, []contact.BulkError, error) {
	pool, err := composables.UsePool(ctx)
	if err != nil {
		return nil, nil, err
	}

	updated := make([]contact.Contact, 0, len(us))
	var failures []contact.BulkError
	for i, u := range us {
		c := u.Contact
		row := pool.QueryRow(ctx, updateContactQuery,
			u.ID, c.Name(), c.Email(), c.Instagram(), c.Followers(),
			tagsOrEmpty(c.Tags()), c.Bio(), c.Notes(),
		)
		saved, err := scanContact(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				failures = append(failures, contact.BulkError{Index: i, Err: contact.ErrNotFound})
				continue
			}
			if batchUnavailable(err) {
				return updated, failures, gerrors.Wrap(err, "bulk update")
			}
			failures = append(failures, contact.BulkError{Index: i, Err: mapPgError(err)})
			continue
		}
		updated = append(updated, saved)
	}
	return updated, failures, nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *ContactRepository) insert(ctx context.Context, q queryRower, c contact.Contact) (contact.Contact, error) {
	row := q.QueryRow(ctx, insertContactQuery,
		c.Name(), c.Email(), c.Instagram(), c.Followers(),
		tagsOrEmpty(c.Tags()), c.Bio(), c.Notes(),
	)
	saved, err := scanContact(row)
	if err != nil {
		return contact.Contact{}, mapPgError(err)
	}
	return saved, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return contact.ErrEmailTaken
	}
	return err
}

// batchUnavailable distinguishes losing the backend from a per-record
// failure. Connection-level errors abort the whole batch.
func batchUnavailable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
