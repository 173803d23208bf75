// Package kv is the local persistent key/value store of the client.
//
// Values are opaque byte blobs keyed by strings such as "@session" or
// "@dayCycle:42". Get returns (nil, nil) for a missing key. Two backends are
// provided: SQLite (the default, a file next to the binary) and PostgreSQL
// (for hosts that run several agents against one database).
package kv

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/fieldsales/internal/dbx"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

// Manager vends repositories bound to a DB handle or a transaction and knows
// how to migrate its schema.
type Manager interface {
	Repo(db dbx.DBTX) Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
	Driver() string
}
