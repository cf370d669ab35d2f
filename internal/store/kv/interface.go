package kv

import "context"

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

// Transactor runs fn against a Repository whose writes become visible
// together when fn returns nil, and not at all otherwise.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// Store is a medium that can also group writes and be released.
type Store interface {
	Repository
	Transactor
	Close() error
}
