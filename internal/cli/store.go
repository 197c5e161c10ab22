package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/layouts/internal/logging"
	"github.com/aretw0/layouts/pkg/adapters/file"
	"github.com/aretw0/layouts/pkg/adapters/memory"
	"github.com/aretw0/layouts/pkg/adapters/redis"
	"github.com/aretw0/layouts/pkg/persistence/middleware"
	"github.com/aretw0/layouts/pkg/ports"
)

// Store kinds accepted by StoreOptions.Kind.
const (
	StoreNone   = "none"
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// StoreOptions selects and configures the draft store.
type StoreOptions struct {
	Kind          string
	DraftsDir     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
	TTL           time.Duration
	// EncryptionKey is a base64 AES-256 key. Empty disables encryption.
	EncryptionKey string
	// Mask lists key patterns whose values are masked in saved drafts.
	Mask []string
}

// Persistence is an opened draft store and, for Redis, its locker.
type Persistence struct {
	Store  ports.SnapshotStore
	Locker ports.DistributedLocker
	closer io.Closer
}

// Close releases the backend connection, if any.
func (p *Persistence) Close() error {
	if p == nil || p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// OpenStore builds the store described by opts. A nil Persistence with no
// error means persistence is disabled.
func OpenStore(opts StoreOptions, logger *slog.Logger) (*Persistence, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	if opts.Kind == "" || opts.Kind == StoreNone {
		return nil, nil
	}
	mws, err := storeMiddlewares(opts)
	if err != nil {
		return nil, err
	}

	var p Persistence
	switch opts.Kind {
	case StoreMemory:
		p.Store = memory.NewStore()
	case StoreFile:
		p.Store = file.New(opts.DraftsDir)
	case StoreRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis store requires an address")
		}
		storeOpts := []redis.Option{redis.WithTTL(opts.TTL)}
		if opts.Prefix != "" {
			storeOpts = append(storeOpts, redis.WithPrefix(opts.Prefix))
		}
		rs := redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, storeOpts...)
		p.Store = rs
		p.Locker = redis.NewLocker(rs.Client(), opts.Prefix)
		p.closer = rs
	default:
		return nil, fmt.Errorf("unknown store %q (want %s, %s, %s or %s)", opts.Kind, StoreNone, StoreMemory, StoreFile, StoreRedis)
	}

	p.Store = middleware.Chain(p.Store, mws...)

	logger.Debug("draft store ready",
		"kind", opts.Kind,
		"encrypted", opts.EncryptionKey != "",
		"masked", len(opts.Mask),
	)
	return &p, nil
}

// storeMiddlewares validates the masking and encryption settings before any
// backend is opened. Masking runs first so only masked data is encrypted.
func storeMiddlewares(opts StoreOptions) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(opts.Mask) > 0 {
		pii, err := middleware.NewPIIMiddleware(opts.Mask)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	if opts.EncryptionKey != "" {
		key, err := middleware.ParseKey(opts.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("encryption key: %w", err)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return mws, nil
}
