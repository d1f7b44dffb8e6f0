package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceshield/v1/internal/core/commitment"
)

// newTestServer 构造一个返回固定目录与证明的预言机测试服务
func newTestServer(t *testing.T, catalog *PriceCatalog, proofs map[string]*MerkleProof) (*httptest.Server, *int) {
	t.Helper()

	requests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/prices", func(w http.ResponseWriter, r *http.Request) {
		requests++
		_ = json.NewEncoder(w).Encode(catalog)
	})
	mux.HandleFunc("/api/merkle-proof/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/api/merkle-proof/"):]
		proof, ok := proofs[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, "no proof for %s", id)
			return
		}
		_ = json.NewEncoder(w).Encode(proof)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &requests
}

func testCatalog(root string) *PriceCatalog {
	return &PriceCatalog{
		Prices: []ProductPrice{
			{ID: "IPADPRO11", Name: "iPad Pro 11", CurrentPrice: json.Number("99990000"), BasePrice: json.Number("199990000")},
			{ID: "MBP14", Name: "MacBook Pro 14", CurrentPrice: json.Number("1999000000"), BasePrice: json.Number("1999000000")},
		},
		MerkleRoot: root,
		Timestamp:  time.Now().Unix(),
	}
}

// testProof 用真实Poseidon2折叠构造指定商品与价格的自洽证明
// 资格检查会复算路径，证明必须真的折叠到自带的根
func testProof(t *testing.T, productID string, currentPrice uint64) *MerkleProof {
	t.Helper()

	productHash := big.NewInt(777)
	leaf := commitment.HashPair(productHash, new(big.Int).SetUint64(currentPrice))
	siblings := []*big.Int{big.NewInt(1), big.NewInt(2)}
	node := commitment.HashPair(leaf, siblings[0])
	node = commitment.HashPair(siblings[1], node)

	return &MerkleProof{
		Leaf:         leaf.String(),
		Siblings:     []string{siblings[0].String(), siblings[1].String()},
		PathIndices:  []int{0, 1},
		Root:         node.String(),
		CurrentPrice: currentPrice,
		ProductHash:  productHash.String(),
		ProductID:    productID,
	}
}

// TestCheckEligibility 测试降价场景的资格判定
// 投保价199.99美元，当前价99.99美元，跌幅50%，阈值10% → 满足理赔条件
func TestCheckEligibility(t *testing.T) {
	proof := testProof(t, "IPADPRO11", 99990000)
	server, _ := newTestServer(t, testCatalog(proof.Root), map[string]*MerkleProof{
		"IPADPRO11": proof,
	})

	client, err := NewClient(server.URL, time.Second, nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	result, err := client.CheckEligibility(context.Background(), "IPADPRO11", 199990000, 10)
	require.NoError(t, err)

	assert.True(t, result.Eligible)
	assert.Equal(t, uint64(99990000), result.CurrentPrice)
	assert.Equal(t, uint64(100000000), result.DropAmount)
	assert.InDelta(t, 50.0, result.DropPercentage, 0.01)
	assert.Equal(t, proof.Root, result.MerkleRoot)
	assert.False(t, result.RootMismatch)
	require.NotNil(t, result.Proof)
}

// TestCheckEligibilityIdempotent 价格不变时重复检查结果一致
func TestCheckEligibilityIdempotent(t *testing.T) {
	proof := testProof(t, "IPADPRO11", 99990000)
	server, _ := newTestServer(t, testCatalog(proof.Root), map[string]*MerkleProof{
		"IPADPRO11": proof,
	})

	client, err := NewClient(server.URL, time.Second, nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	first, err := client.CheckEligibility(context.Background(), "IPADPRO11", 199990000, 10)
	require.NoError(t, err)
	second, err := client.CheckEligibility(context.Background(), "IPADPRO11", 199990000, 10)
	require.NoError(t, err)

	assert.Equal(t, first.Eligible, second.Eligible)
	assert.Equal(t, first.DropAmount, second.DropAmount)
	assert.Equal(t, first.DropPercentage, second.DropPercentage)
}

// TestCheckEligibilityNoDrop 价格未跌时不满足条件
func TestCheckEligibilityNoDrop(t *testing.T) {
	proof := testProof(t, "MBP14", 1999000000)
	server, _ := newTestServer(t, testCatalog(proof.Root), map[string]*MerkleProof{"MBP14": proof})

	client, err := NewClient(server.URL, time.Second, nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	result, err := client.CheckEligibility(context.Background(), "MBP14", 1999000000, 10)
	require.NoError(t, err)

	assert.False(t, result.Eligible)
	assert.Equal(t, uint64(0), result.DropAmount)
	assert.Equal(t, float64(0), result.DropPercentage)
}

// TestCheckEligibilityBelowThreshold 跌幅不足阈值时不满足条件
func TestCheckEligibilityBelowThreshold(t *testing.T) {
	proof := testProof(t, "IPADPRO11", 99990000)
	server, _ := newTestServer(t, testCatalog(proof.Root), map[string]*MerkleProof{
		"IPADPRO11": proof,
	})

	client, err := NewClient(server.URL, time.Second, nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	// 跌幅50%，但阈值60%
	result, err := client.CheckEligibility(context.Background(), "IPADPRO11", 199990000, 60)
	require.NoError(t, err)

	assert.False(t, result.Eligible)
	assert.Equal(t, uint64(100000000), result.DropAmount)
}

// TestCheckEligibilityNormalizedMatch 归一化匹配：上游标识格式不统一
func TestCheckEligibilityNormalizedMatch(t *testing.T) {
	proof := testProof(t, "IPADPRO11", 99990000)
	server, _ := newTestServer(t, testCatalog(proof.Root), map[string]*MerkleProof{
		"IPADPRO11": proof,
	})

	client, err := NewClient(server.URL, time.Second, nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	// "ipad-pro-11" 归一化后等于目录中的 "IPADPRO11"
	result, err := client.CheckEligibility(context.Background(), "ipad-pro-11", 199990000, 10)
	require.NoError(t, err)
	assert.True(t, result.Eligible)
}

// TestCheckEligibilityProductNotFound 目录未命中返回ErrProductNotFound
func TestCheckEligibilityProductNotFound(t *testing.T) {
	server, _ := newTestServer(t, testCatalog("42"), nil)

	client, err := NewClient(server.URL, time.Second, nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	_, err = client.CheckEligibility(context.Background(), "UNKNOWN-SKU", 100, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

// TestCheckEligibilityRootMismatch 证明自洽但与目录根不一致时不失败，仅标记
func TestCheckEligibilityRootMismatch(t *testing.T) {
	proof := testProof(t, "IPADPRO11", 99990000)
	server, _ := newTestServer(t, testCatalog("43"), map[string]*MerkleProof{
		"IPADPRO11": proof,
	})

	client, err := NewClient(server.URL, time.Second, nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	result, err := client.CheckEligibility(context.Background(), "IPADPRO11", 199990000, 10)
	require.NoError(t, err)
	assert.True(t, result.RootMismatch)
	assert.True(t, result.Eligible)
}

// TestCheckEligibilityRejectsTamperedProof 路径折叠不到自带根的证明在
// 资格检查阶段即被拒绝，不会落入快照
func TestCheckEligibilityRejectsTamperedProof(t *testing.T) {
	proof := testProof(t, "IPADPRO11", 99990000)
	proof.Siblings[1] = "666"
	server, _ := newTestServer(t, testCatalog(proof.Root), map[string]*MerkleProof{
		"IPADPRO11": proof,
	})

	client, err := NewClient(server.URL, time.Second, nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	_, err = client.CheckEligibility(context.Background(), "IPADPRO11", 199990000, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProofInvalid)
}

// TestGetPricesCached 目录请求在TTL内命中缓存
func TestGetPricesCached(t *testing.T) {
	server, requests := newTestServer(t, testCatalog("42"), nil)

	client, err := NewClient(server.URL, 30*time.Second, nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	_, err = client.GetPrices(context.Background())
	require.NoError(t, err)
	_, err = client.GetPrices(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, *requests)
}

// TestNon2xxSurfacesBody 非2xx响应把响应体文本透传为错误消息
func TestNon2xxSurfacesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "oracle rebuilding merkle tree")
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, time.Second, nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	_, err = client.GetPrices(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOracleRequest)
	assert.Contains(t, err.Error(), "oracle rebuilding merkle tree")
}

// TestGetPricesRejectsMalformedPayload 畸形负载在边界被拒绝
func TestGetPricesRejectsMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"prices":[{"id":"","currentPrice":"1"}],"merkleRoot":"42"}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, time.Second, nil)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	_, err = client.GetPrices(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

// TestNormalizeProductID 归一化规则：大写、去除非字母数字
func TestNormalizeProductID(t *testing.T) {
	assert.Equal(t, "IPADPRO11", NormalizeProductID("ipad-pro-11"))
	assert.Equal(t, "IPADPRO11", NormalizeProductID("iPad Pro 11"))
	assert.Equal(t, "", NormalizeProductID("---"))
}
