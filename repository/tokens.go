package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	session "github.com/goliatone/go-social-session"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// StoredTokenModel is the Bun model for persisted bearer tokens.
type StoredTokenModel struct {
	bun.BaseModel `bun:"table:stored_tokens"`

	Name      string    `bun:"name,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// SQLTokenStore implements session.TokenStore using Bun.
type SQLTokenStore struct {
	db  *bun.DB
	key string
}

var _ session.TokenStore = (*SQLTokenStore)(nil)

// NewSQLTokenStore creates a new store for the token under key.
func NewSQLTokenStore(db *bun.DB, key string) *SQLTokenStore {
	if key == "" {
		key = session.DefaultTokenKey
	}
	return &SQLTokenStore{db: db, key: key}
}

// OpenSQLite opens a SQLite database through sqliteshim and creates the
// token table if needed.
func OpenSQLite(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the stored_tokens table.
func Migrate(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*StoredTokenModel)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Get implements session.TokenStore.
func (r *SQLTokenStore) Get(ctx context.Context) (string, error) {
	var model StoredTokenModel
	err := r.db.NewSelect().
		Model(&model).
		Where("name = ?", r.key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return model.Value, nil
}

// Set implements session.TokenStore.
func (r *SQLTokenStore) Set(ctx context.Context, token string) error {
	model := &StoredTokenModel{
		Name:      r.key,
		Value:     token,
		UpdatedAt: time.Now(),
	}

	_, err := r.db.NewInsert().
		Model(model).
		On("CONFLICT (name) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	return err
}

// Delete implements session.TokenStore.
func (r *SQLTokenStore) Delete(ctx context.Context) error {
	_, err := r.db.NewDelete().
		Model((*StoredTokenModel)(nil)).
		Where("name = ?", r.key).
		Exec(ctx)
	return err
}
