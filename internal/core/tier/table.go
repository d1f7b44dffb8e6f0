// Package tier 提供保障档位表（TierTable）与保费分级
//
// 档位表是固定的版本化配置：每个档位是一个闭区间价格带，区间两两不相交，
// 共同覆盖受支持的价格范围。任何落在所有区间之外的价格都是硬错误，
// 不存在默认档位。修改档位表需要与电路和链上合约联动换版（不由本包执行）。
package tier

import (
	"errors"
	"fmt"
)

// ErrPriceOutOfRange 价格不在任何档位区间内（零、负或超出最大可保价格）
var ErrPriceOutOfRange = errors.New("price outside all tier boundaries")

// Boundary 档位边界：闭区间价格带到档位与固定保费的映射
type Boundary struct {
	MinMicros uint64 `json:"min_micros"` // 区间下界（含，micro-units）
	MaxMicros uint64 `json:"max_micros"` // 区间上界（含，micro-units）
	Tier      uint32 `json:"tier"`       // 档位编号
	Premium   uint64 `json:"premium"`    // 固定保费（micro-units，USDC 6位小数）
}

// Table 有序、不重叠的档位表
type Table struct {
	boundaries []Boundary
}

// TableVersion 当前档位表版本号（与电路/合约联动换版）
const TableVersion = 1

// defaultBoundaries 默认档位表
//
// 档位与电路内的tier→premium一致性约束（zkclaim/circuits）必须保持同步。
var defaultBoundaries = []Boundary{
	{MinMicros: 1, MaxMicros: 99_999_999, Tier: 1, Premium: 1_000_000},                  // $0.01–$99.999999, 1 USDC
	{MinMicros: 100_000_000, MaxMicros: 499_999_999, Tier: 2, Premium: 3_000_000},       // $100–$499.999999, 3 USDC
	{MinMicros: 500_000_000, MaxMicros: 999_999_999, Tier: 3, Premium: 5_000_000},       // $500–$999.999999, 5 USDC
	{MinMicros: 1_000_000_000, MaxMicros: 4_999_999_999, Tier: 4, Premium: 10_000_000},  // $1000–$4999.999999, 10 USDC
}

// NewTable 创建默认档位表
func NewTable() *Table {
	return &Table{boundaries: defaultBoundaries}
}

// NewTableWithBoundaries 使用自定义档位创建档位表（测试用）
//
// 调用方必须保证区间升序、两两不相交。
func NewTableWithBoundaries(boundaries []Boundary) *Table {
	return &Table{boundaries: boundaries}
}

// Classify 将价格归入档位
//
// 按升序扫描档位表，返回第一个包含该价格的闭区间。价格不落在任何
// 区间内时返回ErrPriceOutOfRange（不可重试，除非换一个价格）。
func (t *Table) Classify(priceMicros uint64) (Boundary, error) {
	for _, b := range t.boundaries {
		if priceMicros >= b.MinMicros && priceMicros <= b.MaxMicros {
			return b, nil
		}
	}
	return Boundary{}, fmt.Errorf("%w: price=%d", ErrPriceOutOfRange, priceMicros)
}

// Boundaries 返回档位表内容的副本
func (t *Table) Boundaries() []Boundary {
	out := make([]Boundary, len(t.boundaries))
	copy(out, t.boundaries)
	return out
}

// PremiumForTier 按档位编号查询固定保费
func (t *Table) PremiumForTier(tier uint32) (uint64, error) {
	for _, b := range t.boundaries {
		if b.Tier == tier {
			return b.Premium, nil
		}
	}
	return 0, fmt.Errorf("未知档位: %d", tier)
}

// MaxInsurableMicros 返回最大可保价格
func (t *Table) MaxInsurableMicros() uint64 {
	if len(t.boundaries) == 0 {
		return 0
	}
	return t.boundaries[len(t.boundaries)-1].MaxMicros
}
