package demo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/cmayhew/weft/pkg/storage"
	"github.com/cmayhew/weft/pkg/storage/memory"
	"github.com/cmayhew/weft/pkg/storage/postgres"
)

// DDL creates the demo tables. Applied at startup when
// storage.postgres.migrate_on_start is set.
const DDL = `
CREATE TABLE IF NOT EXISTS user_groups (
	id   BIGINT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id            BIGINT PRIMARY KEY,
	name          TEXT NOT NULL,
	user_group_id BIGINT NOT NULL REFERENCES user_groups (id)
);
`

// UserGroupSchema declares the user_groups table mapping.
func UserGroupSchema() postgres.Schema[*UserGroup] {
	return postgres.Schema[*UserGroup]{
		Table:   "user_groups",
		Columns: []string{"id", "name"},
		Values:  func(g *UserGroup) []any { return []any{g.ID, g.Name} },
		Scan: func(row pgx.Row) (*UserGroup, error) {
			var g UserGroup
			if err := row.Scan(&g.ID, &g.Name); err != nil {
				return nil, err
			}
			return &g, nil
		},
		ID: func(g *UserGroup) int64 { return g.ID },
	}
}

// UserSchema declares the users table mapping. Enrich resolves the
// user's group through the user_group_id foreign key.
func UserSchema() postgres.Schema[*User] {
	return postgres.Schema[*User]{
		Table:   "users",
		Columns: []string{"id", "name", "user_group_id"},
		Values:  func(u *User) []any { return []any{u.ID, u.Name, u.UserGroupID} },
		Scan: func(row pgx.Row) (*User, error) {
			var u User
			if err := row.Scan(&u.ID, &u.Name, &u.UserGroupID); err != nil {
				return nil, err
			}
			return &u, nil
		},
		ID: func(u *User) int64 { return u.ID },
		Enrich: func(ctx context.Context, q postgres.Querier, u *User) (*User, error) {
			row := q.QueryRow(ctx, "SELECT id, name FROM user_groups WHERE id = $1", u.UserGroupID)
			var g UserGroup
			if err := row.Scan(&g.ID, &g.Name); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return u, nil
				}
				return nil, err
			}
			enriched := *u
			enriched.Group = &g
			return &enriched, nil
		},
	}
}

// NewMemoryStores builds the in-memory stores with the user store's
// enrichment wired to the group store.
func NewMemoryStores() (storage.Store[*User], storage.Store[*UserGroup]) {
	groups := memory.New(func(g *UserGroup) int64 { return g.ID })

	users := memory.New(func(u *User) int64 { return u.ID }).
		WithEnrich(func(ctx context.Context, u *User) (*User, error) {
			g, err := groups.GetByID(ctx, u.UserGroupID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return u, nil
				}
				return nil, err
			}
			enriched := *u
			enriched.Group = g
			return &enriched, nil
		})

	return users, groups
}
