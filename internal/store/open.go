package store

import (
	"context"
	"log/slog"

	"github.com/DaanHessen/one-choice/internal/util"
)

// OpenKV picks the backend for cfg: Postgres when a DSN is set (migrating it
// first), the file store otherwise. A Postgres failure degrades to the file
// store so the game always reaches an interactive state.
func OpenKV(ctx context.Context, cfg util.Config, log *slog.Logger) (KV, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.UsePostgres() {
		kv, err := openPostgres(ctx, cfg)
		if err == nil {
			log.Debug("using postgres store")
			return kv, nil
		}
		log.Warn("postgres unavailable, falling back to file store", "error", err)
	}
	dir := cfg.DataDir
	if dir == "" {
		dir = util.DefaultDataDir
	}
	log.Debug("using file store", "dir", dir)
	return NewFile(dir)
}

func openPostgres(ctx context.Context, cfg util.Config) (KV, error) {
	mig, err := NewMigrator(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := mig.Up(ctx); err != nil && err != ErrNoChange {
		return nil, err
	}
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewPostgres(db), nil
}
