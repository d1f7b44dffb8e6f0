package catalog

import (
	"sync"
	"testing"

	"github.com/priceshield/v1/pkg/interfaces/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (m *memKV) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memKV) Has(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *memKV) Close() error { return nil }

// TestUpsertAndList 新增商品后应能列出
func TestUpsertAndList(t *testing.T) {
	store := NewStore(newMemKV(), nil)

	_, err := store.Upsert(Product{ID: "ipad-pro-11", Name: "iPad Pro 11", BasePrice: 199990000}, 100)
	require.NoError(t, err)
	_, err = store.Upsert(Product{ID: "airpods-max", Name: "AirPods Max", BasePrice: 54990000}, 101)
	require.NoError(t, err)

	products, err := store.List()
	require.NoError(t, err)
	require.Len(t, products, 2)
	// 按归一化标识排序：AIRPODSMAX < IPADPRO11
	assert.Equal(t, "airpods-max", products[0].ID)
	assert.Equal(t, "ipad-pro-11", products[1].ID)
	assert.Equal(t, int64(100), products[1].UpdatedAt)
}

// TestUpsertReplacesOnNormalizedID 归一化后相同的标识是同一条记录
func TestUpsertReplacesOnNormalizedID(t *testing.T) {
	store := NewStore(newMemKV(), nil)

	_, err := store.Upsert(Product{ID: "ipad-pro-11", Name: "iPad Pro 11", BasePrice: 199990000}, 100)
	require.NoError(t, err)
	_, err = store.Upsert(Product{ID: "iPad Pro 11", Name: "iPad Pro 11吋", BasePrice: 189990000}, 200)
	require.NoError(t, err)

	products, err := store.List()
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "iPad Pro 11", products[0].ID)
	assert.Equal(t, uint64(189990000), products[0].BasePrice)
	assert.Equal(t, int64(200), products[0].UpdatedAt)
}

// TestUpsertRejectsInvalid 无效标识或空名称被拒绝
func TestUpsertRejectsInvalid(t *testing.T) {
	store := NewStore(newMemKV(), nil)

	_, err := store.Upsert(Product{ID: "---", Name: "x"}, 1)
	assert.Error(t, err)

	_, err = store.Upsert(Product{ID: "ok", Name: ""}, 1)
	assert.Error(t, err)
}

// TestListEmpty 空目录返回空清单而不是错误
func TestListEmpty(t *testing.T) {
	store := NewStore(newMemKV(), nil)

	products, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, products)
}
