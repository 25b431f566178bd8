package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
)

var ErrNoChange = errors.New("no change")

// Persisted keys. Values are JSON documents unless noted.
const (
	KeyLanguage    = "onechoice_language" // bare string
	KeySettings    = "onechoice_settings"
	KeyDifficulty  = "onechoice_difficulty" // bare string
	KeyPlayerStats = "onechoice_player_stats"
	KeyInsight     = "onechoice_insight"
	KeyEndings     = "onechoice_endings"
	KeyDaily       = "onechoice_daily"
	KeySave        = "onechoice_save"
)

// KV is the durable key-value substrate every manager persists through.
// Get reports absence with ok=false and a nil error.
type KV interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// PutJSON marshals v and stores it under key.
func PutJSON(ctx context.Context, kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal %s", key)
	}
	return kv.Put(ctx, key, data)
}

// GetJSON loads key into target. ok is false when the key is absent.
func GetJSON(ctx context.Context, kv KV, key string, target any) (bool, error) {
	data, ok, err := kv.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return false, errors.Wrapf(err, "unmarshal %s", key)
	}
	return true, nil
}

// PutString stores a bare scalar.
func PutString(ctx context.Context, kv KV, key, v string) error {
	return kv.Put(ctx, key, []byte(v))
}

// GetString loads a bare scalar.
func GetString(ctx context.Context, kv KV, key string) (string, bool, error) {
	data, ok, err := kv.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	return string(data), true, nil
}

// Memory is an in-process KV used by tests and the headless simulator.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemory() *Memory { return &Memory{data: make(map[string][]byte)} }

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error { return nil }
