package snapshot

import (
	"context"
	"time"
)

// mockStore implements KVSource for tests.
type mockStore struct {
	pingFn     func(ctx context.Context) error
	hgetAllFn  func(ctx context.Context, key string) (map[string]string, error)
	getMultiFn func(ctx context.Context, keys []string) ([][]byte, error)
	existsFn   func(ctx context.Context, key string) (bool, error)
}

func (m *mockStore) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) GetMulti(ctx context.Context, keys []string) ([][]byte, error) {
	if m.getMultiFn != nil {
		return m.getMultiFn(ctx, keys)
	}
	return make([][]byte, len(keys)), nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return true, nil
}

var (
	nine   = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	nine30 = nine.Add(30 * time.Minute)
)
