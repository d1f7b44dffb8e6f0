package badger

import (
	"testing"

	badgerconfig "github.com/priceshield/v1/internal/config/storage/badger"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMemStore 创建内存模式存储用于测试
func newMemStore(t *testing.T) *Store {
	t.Helper()
	config := badgerconfig.NewFromOptions(&badgerconfig.Options{
		InMemory:     true,
		MemTableSize: 8 << 20,
	})
	store, err := New(config, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// newDiskStore 创建磁盘模式存储用于测试
func newDiskStore(t *testing.T, dir string) *Store {
	t.Helper()
	config := badgerconfig.NewFromOptions(&badgerconfig.Options{
		Path:         dir,
		SyncWrites:   true,
		MemTableSize: 8 << 20,
	})
	store, err := New(config, nil)
	require.NoError(t, err)
	return store
}

// TestSetGetRoundTrip 写入后应能读回同样的值
func TestSetGetRoundTrip(t *testing.T) {
	store := newMemStore(t)

	require.NoError(t, store.Set("policies_0xabc", []byte(`[{"policy_id":"1"}]`)))

	value, err := store.Get("policies_0xabc")
	require.NoError(t, err)
	assert.Equal(t, `[{"policy_id":"1"}]`, string(value))
}

// TestGetMissingKey 键不存在时返回哨兵错误而不是空值
func TestGetMissingKey(t *testing.T) {
	store := newMemStore(t)

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

// TestHasAndDelete Has与Delete的基本语义
func TestHasAndDelete(t *testing.T) {
	store := newMemStore(t)

	exists, err := store.Has("k")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Set("k", []byte("v")))
	exists, err = store.Has("k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete("k"))
	exists, err = store.Has("k")
	require.NoError(t, err)
	assert.False(t, exists)

	// 删除不存在的键是no-op
	assert.NoError(t, store.Delete("k"))
}

// TestSetOverwrite 覆盖写入以最新值为准
func TestSetOverwrite(t *testing.T) {
	store := newMemStore(t)

	require.NoError(t, store.Set("k", []byte("v1")))
	require.NoError(t, store.Set("k", []byte("v2")))

	value, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(value))
}

// TestPersistenceAcrossReopen 磁盘模式下重开数据库后数据仍在
func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store := newDiskStore(t, dir)
	require.NoError(t, store.Set("commitments_0xabc", []byte(`["0x1234"]`)))
	require.NoError(t, store.Close())

	reopened := newDiskStore(t, dir)
	defer func() { _ = reopened.Close() }()

	value, err := reopened.Get("commitments_0xabc")
	require.NoError(t, err)
	assert.Equal(t, `["0x1234"]`, string(value))
}

// TestCloseIdempotent 重复关闭不报错
func TestCloseIdempotent(t *testing.T) {
	config := badgerconfig.NewFromOptions(&badgerconfig.Options{
		InMemory:     true,
		MemTableSize: 8 << 20,
	})
	store, err := New(config, nil)
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
