package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/DaanHessen/one-choice/internal/util"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DB wraps gorm.DB and exposes Close.
type DB struct {
	gorm *gorm.DB
	sql  *sql.DB
}

func (d *DB) Close() error { return d.sql.Close() }

// Open connects to Postgres per config.
func Open(ctx context.Context, cfg util.Config) (*DB, error) {
	if !cfg.UsePostgres() {
		return nil, fmt.Errorf("missing DSN")
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if cfg.Debug {
		gcfg.Logger = logger.Default.LogMode(logger.Info)
	}
	gdb, err := gorm.Open(postgres.Open(cfg.DSN), gcfg)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	sdb, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sdb.SetConnMaxLifetime(30 * time.Minute)
	sdb.SetMaxOpenConns(4)
	sdb.SetMaxIdleConns(2)
	if err := sdb.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "ping postgres")
	}
	return &DB{gorm: gdb, sql: sdb}, nil
}

// WithTx executes fn within a database transaction.
func (d *DB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.gorm.WithContext(ctx).Transaction(fn)
}

// Entry is one row of kv_entries.
type Entry struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     []byte `gorm:"column:value"`
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "kv_entries" }

// Postgres is a KV backed by the kv_entries table.
type Postgres struct {
	db *DB
}

func NewPostgres(db *DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) Put(ctx context.Context, key string, value []byte) error {
	e := Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := p.db.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&e).Error
	})
	return errors.Wrapf(err, "put %s", key)
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e Entry
	err := p.db.gorm.WithContext(ctx).Where("key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "get %s", key)
	}
	return e.Value, true, nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	err := p.db.gorm.WithContext(ctx).Where("key = ?", key).Delete(&Entry{}).Error
	return errors.Wrapf(err, "delete %s", key)
}

func (p *Postgres) Close() error { return p.db.Close() }
