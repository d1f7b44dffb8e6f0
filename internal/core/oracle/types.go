// Package oracle 实现价格预言机客户端
//
// 🎯 **核心职责**：
// - 拉取预言机发布的价格目录（含Merkle根）
// - 拉取单个商品的Merkle包含证明
// - 本地复算Merkle路径（预言机是半信任的，调用方必须复验）
// - 根据当前价格与投保价格计算理赔资格
//
// ⚠️ **边界约定**：
// 预言机返回的是松散JSON，本包在边界处解析为带校验的DTO，
// 畸形负载在进入承诺/证明流程之前被拒绝。
package oracle

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// ProductPrice 价格目录中的单个商品条目
type ProductPrice struct {
	ID           string      `json:"id"`           // 商品标识
	Name         string      `json:"name"`         // 商品名称
	CurrentPrice json.Number `json:"currentPrice"` // 当前价格（微单位）
	BasePrice    json.Number `json:"basePrice"`    // 基准价格（微单位）
	Change       json.Number `json:"change"`       // 相对基准的变化
}

// CurrentPriceMicros 解析当前价格为微单位整数
func (p *ProductPrice) CurrentPriceMicros() (uint64, error) {
	v, err := parseMicros(p.CurrentPrice)
	if err != nil {
		return 0, fmt.Errorf("商品 %s 当前价格非法: %w", p.ID, err)
	}
	return v, nil
}

// PriceCatalog 预言机发布的价格目录
type PriceCatalog struct {
	Prices     []ProductPrice `json:"prices"`     // 商品价格列表
	MerkleRoot string         `json:"merkleRoot"` // 目录对应的Merkle根（域元素十进制/十六进制串）
	Timestamp  int64          `json:"timestamp"`  // 发布时间戳
}

// Validate 校验目录负载的基本形状
func (c *PriceCatalog) Validate() error {
	if c.MerkleRoot == "" {
		return fmt.Errorf("价格目录缺少merkleRoot")
	}
	for i := range c.Prices {
		if c.Prices[i].ID == "" {
			return fmt.Errorf("价格目录第%d项缺少商品标识", i)
		}
		if _, err := c.Prices[i].CurrentPriceMicros(); err != nil {
			return err
		}
	}
	return nil
}

// MerkleProof 单个商品的Merkle包含证明
//
// 不变量：从 Leaf 沿 Siblings/PathIndices 复算必须得到 Root。
// VerifyMerkleProof 执行该复算，CheckEligibility在快照落库前强制校验；
// 理赔路径由电路内的Merkle约束再次裁决。
type MerkleProof struct {
	Leaf         string   `json:"leaf"`         // 叶子 = Poseidon2(productHash, currentPrice)
	Siblings     []string `json:"siblings"`     // 兄弟节点（自底向上）
	PathIndices  []int    `json:"pathIndices"`  // 路径方向（0=左，1=右）
	Root         string   `json:"root"`         // 证明声称的根
	CurrentPrice uint64   `json:"currentPrice"` // 证明绑定的当前价格（微单位）
	ProductHash  string   `json:"productHash"`  // 商品哈希（域元素）
	ProductID    string   `json:"productId"`    // 商品标识
}

// Validate 校验证明负载的基本形状
func (p *MerkleProof) Validate() error {
	if p.Leaf == "" || p.Root == "" {
		return fmt.Errorf("merkle证明缺少leaf或root")
	}
	if len(p.Siblings) != len(p.PathIndices) {
		return fmt.Errorf("merkle证明siblings与pathIndices长度不一致: %d != %d",
			len(p.Siblings), len(p.PathIndices))
	}
	for i, idx := range p.PathIndices {
		if idx != 0 && idx != 1 {
			return fmt.Errorf("merkle证明第%d个路径方向非法: %d", i, idx)
		}
	}
	return nil
}

// EligibilityResult 理赔资格检查结果
type EligibilityResult struct {
	Eligible       bool         `json:"eligible"`        // 是否满足理赔条件
	CurrentPrice   uint64       `json:"current_price"`   // 当前价格（微单位）
	DropAmount     uint64       `json:"drop_amount"`     // 降价金额（微单位）
	DropPercentage float64      `json:"drop_percentage"` // 降价百分比
	MerkleRoot     string       `json:"merkle_root"`     // 目录根
	Proof          *MerkleProof `json:"proof"`           // 商品的包含证明
	RootMismatch   bool         `json:"root_mismatch"`   // 证明根与目录根不一致（预言机更新竞态）
}

// parseMicros 解析JSON数值为非负微单位整数
// 预言机偶尔以字符串形式下发数值，json.Number两种都兼容
func parseMicros(n json.Number) (uint64, error) {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return 0, fmt.Errorf("空数值")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 || !v.IsUint64() {
		return 0, fmt.Errorf("无法解析为非负整数: %q", s)
	}
	return v.Uint64(), nil
}
