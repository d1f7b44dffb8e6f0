// Package catalog 实现本地商品目录
//
// 运营侧通过HTTP侧信道维护可投保商品清单（标识、名称、基准价格），
// 供CLI投保时展示候选商品。目录与预言机的价格目录相互独立：
// 价格以预言机为准，这里只登记商品元数据。
package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/priceshield/v1/internal/core/oracle"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/log"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/storage"
)

// productsKey 商品清单在KV存储中的键
const productsKey = "catalog_products"

// Product 商品条目
type Product struct {
	ID        string `json:"id"`        // 商品标识（保存归一化前的原始形式）
	Name      string `json:"name"`      // 展示名称
	BasePrice uint64 `json:"basePrice"` // 基准价格（micro-units）
	UpdatedAt int64  `json:"updatedAt"` // 最近更新时间（unix秒）
}

// Store 商品目录存储
type Store struct {
	kv     storage.KVStore
	logger log.Logger
	mu     sync.Mutex
}

// NewStore 创建商品目录存储
func NewStore(kv storage.KVStore, logger log.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logger,
	}
}

// Upsert 以归一化标识为准新增或覆盖商品
//
// 归一化后相同的标识视为同一商品（"ipad-pro-11"与"iPad Pro 11"
// 是一条记录），后写覆盖先写。
func (s *Store) Upsert(product Product, updatedAt int64) (*Product, error) {
	normalized := oracle.NormalizeProductID(product.ID)
	if normalized == "" {
		return nil, fmt.Errorf("商品标识无效: id=%q", product.ID)
	}
	if product.Name == "" {
		return nil, fmt.Errorf("商品名称不能为空")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load()
	if err != nil {
		return nil, err
	}

	product.UpdatedAt = updatedAt

	replaced := false
	for i := range products {
		if oracle.NormalizeProductID(products[i].ID) == normalized {
			products[i] = product
			replaced = true
			break
		}
	}
	if !replaced {
		products = append(products, product)
	}

	if err := s.store(products); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Debugf("商品目录更新: id=%s replaced=%v", product.ID, replaced)
	}
	return &product, nil
}

// List 列出全部商品，按归一化标识排序保证输出稳定
func (s *Store) List() ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.load()
	if err != nil {
		return nil, err
	}
	sort.Slice(products, func(i, j int) bool {
		return oracle.NormalizeProductID(products[i].ID) < oracle.NormalizeProductID(products[j].ID)
	})
	return products, nil
}

// load 读取商品清单，键不存在视为空目录
func (s *Store) load() ([]Product, error) {
	data, err := s.kv.Get(productsKey)
	if err != nil {
		if err == storage.ErrKeyNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("读取商品目录失败: %w", err)
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("解析商品目录失败: %w", err)
	}
	return products, nil
}

// store 整体写回商品清单（单键原子写入）
func (s *Store) store(products []Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("序列化商品目录失败: %w", err)
	}
	if err := s.kv.Set(productsKey, data); err != nil {
		return fmt.Errorf("写入商品目录失败: %w", err)
	}
	return nil
}
