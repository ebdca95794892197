package store

import (
	"context"
	"fmt"
)

// Backend bundles the stores the application runs on
type Backend struct {
	Carts       CartStore
	Books       BookStore
	Users       UserStore
	PrintOrders PrintOrderStore
	close       func(context.Context) error
}

// Close releases the underlying connection, if any
func (b *Backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}

// NewMemoryBackend returns a backend that keeps everything in process memory
func NewMemoryBackend() *Backend {
	return &Backend{
		Carts:       NewMemoryCartStore(),
		Books:       NewMemoryBookStore(),
		Users:       NewMemoryUserStore(),
		PrintOrders: NewMemoryPrintOrderStore(),
	}
}

// Open returns the backend named by kind: "mongo" or "memory"
func Open(ctx context.Context, kind, mongoURI, database string) (*Backend, error) {
	switch kind {
	case "memory":
		return NewMemoryBackend(), nil
	case "mongo", "":
		m, err := ConnectMongo(ctx, mongoURI, database)
		if err != nil {
			return nil, err
		}
		if err := m.EnsureIndexes(ctx); err != nil {
			_ = m.Close(ctx)
			return nil, err
		}
		return &Backend{
			Carts:       NewMongoCartStore(m),
			Books:       NewMongoBookStore(m),
			Users:       NewMongoUserStore(m),
			PrintOrders: NewMongoPrintOrderStore(m),
			close:       m.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", kind)
	}
}
