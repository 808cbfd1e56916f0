package persistence

import (
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dazedniteman/pathpal-crm/modules/crm/domain/aggregates/contact"
)

func scanContact(row pgx.Row) (contact.Contact, error) {
	var (
		id        pgtype.UUID
		name      string
		email     string
		handle    string
		followers pgtype.Int8
		tags      []string
		bio       string
		notes     string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &name, &email, &handle, &followers, &tags, &bio, &notes, &createdAt, &updatedAt); err != nil {
		return contact.Contact{}, err
	}

	var followersPtr *int64
	if followers.Valid {
		v := followers.Int64
		followersPtr = &v
	}

	return contact.Hydrate(
		id.Bytes,
		name,
		email,
		handle,
		followersPtr,
		tags,
		bio,
		notes,
		createdAt.Time,
		updatedAt.Time,
	), nil
}

func scanContacts(rows pgx.Rows) ([]contact.Contact, error) {
	var out []contact.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
