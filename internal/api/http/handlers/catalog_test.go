package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceshield/v1/internal/core/catalog"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/storage"
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

// newTestRouter 构造只挂商品目录路由的测试路由器
func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewCatalogHandler(catalog.NewStore(newMemKV(), nil), nil)
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router
}

// TestUpsertThenList 登记商品后应能通过列表端点读到
func TestUpsertThenList(t *testing.T) {
	router := newTestRouter()

	body := `{"id":"ipad-pro-11","name":"iPad Pro 11","basePrice":199990000}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []catalog.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "ipad-pro-11", resp.Data[0].ID)
	assert.Equal(t, uint64(199990000), resp.Data[0].BasePrice)
}

// TestUpsertValidation 缺字段或无效标识返回400
func TestUpsertValidation(t *testing.T) {
	router := newTestRouter()

	for _, body := range []string{
		`{"name":"缺id"}`,
		`{"id":"x1","basePrice":1}`,
		`{"id":"---","name":"无效标识"}`,
		`not-json`,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/products", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body=%s", body)
	}
}

// TestListEmptyCatalog 空目录返回空数组而不是null
func TestListEmptyCatalog(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}
