package clicks

import "context"

// Storage is the key-value backend the click log is persisted to. The whole
// log is stored as one value under one key, rewritten on every click.
// Implementations must be safe for concurrent use.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}
