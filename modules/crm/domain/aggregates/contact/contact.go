package contact

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Contact struct {
	id        uuid.UUID
	name      string
	email     string
	instagram string
	followers *int64
	tags      []string
	bio       string
	notes     string
	createdAt time.Time
	updatedAt time.Time
}

func New(
	name string,
	email string,
	instagram string,
	followers *int64,
	tags []string,
	bio string,
	notes string,
) Contact {
	return Contact{
		name:      strings.TrimSpace(name),
		email:     normalizeEmail(email),
		instagram: strings.TrimSpace(instagram),
		followers: followers,
		tags:      tags,
		bio:       bio,
		notes:     notes,
	}
}

func Hydrate(
	id uuid.UUID,
	name string,
	email string,
	instagram string,
	followers *int64,
	tags []string,
	bio string,
	notes string,
	createdAt time.Time,
	updatedAt time.Time,
) Contact {
	return Contact{
		id:        id,
		name:      strings.TrimSpace(name),
		email:     normalizeEmail(email),
		instagram: strings.TrimSpace(instagram),
		followers: followers,
		tags:      tags,
		bio:       bio,
		notes:     notes,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (c Contact) ID() uuid.UUID        { return c.id }
func (c Contact) Name() string         { return c.name }
func (c Contact) Email() string        { return c.email }
func (c Contact) Instagram() string    { return c.instagram }
func (c Contact) Followers() *int64    { return c.followers }
func (c Contact) Tags() []string       { return c.tags }
func (c Contact) Bio() string          { return c.bio }
func (c Contact) Notes() string        { return c.notes }
func (c Contact) CreatedAt() time.Time { return c.createdAt }
func (c Contact) UpdatedAt() time.Time { return c.updatedAt }
func (c Contact) IsZero() bool         { return c.id == uuid.Nil && c.email == "" && c.name == "" }

func normalizeEmail(v string) string { return strings.ToLower(strings.TrimSpace(v)) }
