package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/lobster"
	"github.com/aretw0/lobster/internal/adapters/file"
	"github.com/aretw0/lobster/pkg/adapters/redis"
	"github.com/aretw0/lobster/pkg/commands"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/observability"
	"github.com/aretw0/lobster/pkg/persistence/middleware"
	"github.com/aretw0/lobster/pkg/ports"
)

// LockPrefix namespaces the Redis locks taken around snapshot updates.
const LockPrefix = "lobster:lock:"

// Backend is an opened snapshot store with its optional locker.
type Backend struct {
	Store  ports.SnapshotStore
	Locker ports.DistributedLocker
	Close  func() error
}

// OpenStore selects the snapshot store: Redis when a URL is configured,
// otherwise JSON files under the state directory. With a state key the
// store is wrapped in AES-GCM encryption.
func OpenStore(opts RunOptions) (*Backend, error) {
	ttl, err := stateTTL(opts)
	if err != nil {
		return nil, err
	}

	var b *Backend
	if opts.RedisURL != "" {
		store, err := redis.NewFromURL(opts.RedisURL, redis.WithTTL(ttl))
		if err != nil {
			return nil, err
		}
		b = &Backend{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), LockPrefix),
			Close:  store.Close,
		}
	} else {
		b = &Backend{
			Store: file.New(opts.StateDir),
			Close: func() error { return nil },
		}
	}

	if opts.StateKey != "" {
		key, err := middleware.ParseKey(opts.StateKey)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("invalid %s: %w", EnvStateKey, err)
		}
		encrypt, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Store = encrypt(b.Store)
	}
	return b, nil
}

func stateTTL(opts RunOptions) (time.Duration, error) {
	if opts.StateTTL == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(opts.StateTTL)
	if err != nil || ttl < 0 {
		return 0, fmt.Errorf("invalid state TTL %q", opts.StateTTL)
	}
	if ttl > 0 && opts.RedisURL == "" {
		return 0, fmt.Errorf("state TTL requires a Redis store")
	}
	return ttl, nil
}

// createEngine initializes a Lobster engine with standard CLI conventions.
func createEngine(opts RunOptions, logger *slog.Logger, extra ...lobster.Option) (*lobster.Engine, func(), error) {
	backend, err := OpenStore(opts)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if err := backend.Close(); err != nil {
			logger.Warn("failed to close state store", "err", err)
		}
	}

	engineOpts := []lobster.Option{
		lobster.WithLogger(logger),
		lobster.WithStore(backend.Store),
		lobster.WithEnv(environ()),
	}
	if backend.Locker != nil {
		engineOpts = append(engineOpts, lobster.WithLocker(backend.Locker))
	}
	if opts.Debug {
		engineOpts = append(engineOpts, lobster.WithLifecycleHooks(observability.DebugHooks(logger)))
	}
	engineOpts = append(engineOpts, lobster.WithCommandsFile(commandsFile(opts.CommandsFile)))
	engineOpts = append(engineOpts, extra...)

	engine, err := lobster.New(engineOpts...)
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, closeStore, nil
}

// NewEngine builds an engine for long-running surfaces (serve, mcp).
// The returned func closes the state store.
func NewEngine(opts RunOptions, logger *slog.Logger, extra ...lobster.Option) (*lobster.Engine, func(), error) {
	opts.ApplyEnv(nil)
	return createEngine(opts, logger, extra...)
}

// commandsFile returns the configured alias file, falling back to
// commands.yaml in the working directory when it exists.
func commandsFile(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat(commands.DefaultCommandsFile); err == nil {
		return commands.DefaultCommandsFile
	}
	return ""
}

func newRunOptions(ctx context.Context, input []domain.Item, mode domain.Mode, stdio IO) lobster.RunOptions {
	in := stdio.In
	if in != nil && mode == domain.ModeHuman {
		in = NewInterruptibleReader(in, ctx.Done())
	}
	return lobster.RunOptions{
		Input:  input,
		Mode:   mode,
		Stdin:  in,
		Stdout: stdio.Out,
		Stderr: stdio.Err,
	}
}
