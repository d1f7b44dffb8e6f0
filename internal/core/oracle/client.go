package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/allegro/bigcache/v3"

	"github.com/priceshield/v1/internal/core/infrastructure/metrics"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/log"
)

// catalogCacheKey 价格目录在缓存中的键
const catalogCacheKey = "price_catalog"

// Client 价格预言机HTTP客户端
//
// 不做重试：重试策略由调用方持有（CLI交互路径和批量资格检查
// 对重试的容忍度不同）。目录结果带短TTL缓存，吸收批量检查时的
// 重复请求。
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *bigcache.BigCache
	logger     log.Logger
}

// NewClient 创建预言机客户端
func NewClient(baseURL string, cacheTTL time.Duration, logger log.Logger) (*Client, error) {
	if cacheTTL <= 0 {
		cacheTTL = time.Second
	}

	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(cacheTTL))
	if err != nil {
		return nil, fmt.Errorf("创建目录缓存失败: %w", err)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		cache:      cache,
		logger:     logger,
	}, nil
}

// GetPrices 获取当前价格目录
//
// 命中缓存时直接返回，未命中时请求预言机并缓存结果。
// 非2xx响应以响应体文本作为错误消息。
func (c *Client) GetPrices(ctx context.Context) (*PriceCatalog, error) {
	if data, err := c.cache.Get(catalogCacheKey); err == nil {
		var catalog PriceCatalog
		if err := json.Unmarshal(data, &catalog); err == nil {
			return &catalog, nil
		}
		// 缓存内容损坏时回退到远端请求
	}

	endpoint := c.baseURL + "/api/prices"
	body, err := c.get(ctx, "prices", endpoint)
	if err != nil {
		return nil, err
	}

	var catalog PriceCatalog
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, WrapInvalidPayloadError(endpoint, err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, WrapInvalidPayloadError(endpoint, err)
	}

	if data, err := json.Marshal(&catalog); err == nil {
		_ = c.cache.Set(catalogCacheKey, data)
	}

	return &catalog, nil
}

// GetMerkleProof 获取单个商品的Merkle包含证明
func (c *Client) GetMerkleProof(ctx context.Context, productID string) (*MerkleProof, error) {
	endpoint := c.baseURL + "/api/merkle-proof/" + url.PathEscape(productID)
	body, err := c.get(ctx, "merkle_proof", endpoint)
	if err != nil {
		return nil, err
	}

	var proof MerkleProof
	if err := json.Unmarshal(body, &proof); err != nil {
		return nil, WrapInvalidPayloadError(endpoint, err)
	}
	if err := proof.Validate(); err != nil {
		return nil, WrapInvalidPayloadError(endpoint, err)
	}

	return &proof, nil
}

// CheckEligibility 检查商品当前是否满足理赔条件
//
// 📋 **检查流程**：
//  1. 拉取价格目录
//  2. 双路径匹配商品（归一化匹配优先，大小写不敏感精确匹配兜底）
//  3. 拉取商品的Merkle证明
//  4. 本地复算证明路径（预言机是半信任的，折叠结果不等于
//     证明自带的根时返回ErrProofInvalid）
//  5. 证明根与目录根不一致时仅告警不失败（预言机更新竞态，
//     理赔时会再对账本根做最终校验）
//  6. 计算降价金额与百分比，判定资格
func (c *Client) CheckEligibility(ctx context.Context, productID string, originalPriceMicros uint64, dropThresholdPercent uint64) (*EligibilityResult, error) {
	catalog, err := c.GetPrices(ctx)
	if err != nil {
		return nil, err
	}

	product := matchProduct(catalog.Prices, productID)
	if product == nil {
		return nil, WrapProductNotFoundError(productID)
	}

	currentPrice, err := product.CurrentPriceMicros()
	if err != nil {
		return nil, err
	}

	proof, err := c.GetMerkleProof(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	valid, err := c.VerifyMerkleProof(proof)
	if err != nil {
		return nil, fmt.Errorf("%w: productID=%s, cause=%v", ErrProofInvalid, product.ID, err)
	}
	if !valid {
		return nil, WrapProofInvalidError(product.ID, proof.Root)
	}

	rootMismatch := proof.Root != catalog.MerkleRoot
	if rootMismatch && c.logger != nil {
		c.logger.Warnf("merkle证明根与目录根不一致，可能为预言机更新竞态: proofRoot=%s catalogRoot=%s productID=%s",
			proof.Root, catalog.MerkleRoot, product.ID)
	}

	var dropAmount uint64
	if originalPriceMicros > currentPrice {
		dropAmount = originalPriceMicros - currentPrice
	}

	var dropPercentage float64
	if originalPriceMicros > 0 {
		dropPercentage = float64(dropAmount) / float64(originalPriceMicros) * 100
	}

	eligible := dropAmount > 0 && dropPercentage >= float64(dropThresholdPercent)

	return &EligibilityResult{
		Eligible:       eligible,
		CurrentPrice:   currentPrice,
		DropAmount:     dropAmount,
		DropPercentage: dropPercentage,
		MerkleRoot:     catalog.MerkleRoot,
		Proof:          proof,
		RootMismatch:   rootMismatch,
	}, nil
}

// Close 释放客户端持有的缓存资源
func (c *Client) Close() error {
	return c.cache.Close()
}

// get 执行一次GET请求并返回响应体
func (c *Client) get(ctx context.Context, name, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		metrics.IncOracleRequest(name, "error")
		return nil, WrapOracleRequestError(endpoint, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncOracleRequest(name, "error")
		return nil, WrapOracleRequestError(endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncOracleRequest(name, "error")
		return nil, WrapOracleRequestError(endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.IncOracleRequest(name, "error")
		return nil, WrapOracleStatusError(endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	metrics.IncOracleRequest(name, "ok")
	return body, nil
}

// matchProduct 双路径商品匹配
//
// 上游商品标识的大小写和格式不保证统一，先用归一化形式
// （大写、去掉非字母数字）匹配，无候选时回退到大小写不敏感的
// 精确匹配。
func matchProduct(prices []ProductPrice, productID string) *ProductPrice {
	normalized := NormalizeProductID(productID)
	if normalized != "" {
		for i := range prices {
			if NormalizeProductID(prices[i].ID) == normalized {
				return &prices[i]
			}
		}
	}

	for i := range prices {
		if strings.EqualFold(prices[i].ID, productID) {
			return &prices[i]
		}
	}

	return nil
}

// NormalizeProductID 归一化商品标识：大写并去掉非字母数字字符
func NormalizeProductID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
