package repository

import (
	"context"

	"github.com/goliatone/go-errors"
	session "github.com/goliatone/go-social-session"
)

// Open builds the token store selected by opts. The returned function
// releases the underlying connection.
func Open(ctx context.Context, opts session.StorageOptions, key string) (session.TokenStore, func() error, error) {
	switch opts.Driver {
	case session.StorageSQLite:
		db, err := OpenSQLite(ctx, opts.DSN)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CategoryOperation, "failed to open sqlite token store")
		}
		return NewSQLTokenStore(db, key), db.Close, nil
	case session.StorageRedis:
		store, err := NewRedisTokenStore(ctx, opts.RedisURL, key, opts.TTL)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CategoryOperation, "failed to open redis token store")
		}
		return store, store.Close, nil
	case session.StorageMemory, "":
		return session.NewMemoryTokenStore(), func() error { return nil }, nil
	default:
		return nil, nil, errors.New("unknown token storage driver", errors.CategoryBadInput).
			WithMetadata(map[string]any{"driver": opts.Driver})
	}
}
