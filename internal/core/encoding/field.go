// Package encoding 提供字段编码器（FieldEncoder）
//
// ============================================================================
// 字段编码器（承诺与证明输入的数值规范化）
// ============================================================================
//
// 🎯 **设计目的**：
// 把异构的数值输入（整数、十进制字符串、0x十六进制字符串）统一规范化为
// BN254标量域元素的规范十进制字符串表示，供Poseidon哈希和证明输入装配使用。
//
// 🏗️ **实现策略**：
// - 基于gnark-crypto的bn254/fr域元素做模约简
// - 含小数点的美元金额在本边界一次性放大10^6并四舍五入（下游禁止再次取整）
// - 0x前缀输入按大端无符号整数解析
//
// ⚠️ **注意**：
// - Encode是全函数：空串或无法解析的输入编码为域零元素"0"（保持证明输入
//   装配的完整性），但会记录警告日志
// - 承诺构造等不允许注入零值的调用方必须使用EncodeStrict
//
// ============================================================================
package encoding

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/priceshield/v1/pkg/interfaces/infrastructure/log"
	"github.com/priceshield/v1/pkg/utils"
)

// Encoder 字段编码器
type Encoder struct {
	logger log.Logger
}

// NewEncoder 创建字段编码器
func NewEncoder(logger log.Logger) *Encoder {
	return &Encoder{logger: logger}
}

// Modulus 返回BN254标量域模数的副本
func Modulus() *big.Int {
	return fr.Modulus()
}

// ParseField 将原始字符串解析为模约简后的域元素整数
//
// 支持三种输入形态：
//   - "0x..."：大端无符号十六进制
//   - 含小数点的十进制：按美元金额放大10^6并half-up取整（仅此一次取整）
//   - 纯十进制整数：直接解析
func ParseField(raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("空输入")
	}

	var v *big.Int
	switch {
	case strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X"):
		parsed, ok := new(big.Int).SetString(raw[2:], 16)
		if !ok {
			return nil, fmt.Errorf("非法十六进制: %s", raw)
		}
		v = parsed
	case strings.Contains(raw, "."):
		micros, err := utils.ParseUSDToMicros(raw)
		if err != nil {
			return nil, err
		}
		v = new(big.Int).SetUint64(micros)
	default:
		parsed, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return nil, fmt.Errorf("非法十进制: %s", raw)
		}
		if parsed.Sign() < 0 {
			return nil, fmt.Errorf("负数不能编码为域元素: %s", raw)
		}
		v = parsed
	}

	return v.Mod(v, fr.Modulus()), nil
}

// Encode 将原始字符串编码为规范十进制域元素字符串（全函数）
//
// 空串或无法解析的输入编码为"0"。该策略保持证明输入装配的完整性，
// 代价是把坏输入静默变成零值，因此这里必须留下警告日志。
func (e *Encoder) Encode(raw string) string {
	v, err := ParseField(raw)
	if err != nil {
		if e.logger != nil && strings.TrimSpace(raw) != "" {
			e.logger.Warnf("字段编码失败，按域零处理: input=%q err=%v", raw, err)
		}
		return "0"
	}
	return v.String()
}

// EncodeStrict 严格编码：无法解析时返回错误而不是域零
func (e *Encoder) EncodeStrict(raw string) (string, error) {
	v, err := ParseField(raw)
	if err != nil {
		return "", fmt.Errorf("字段编码失败: %w", err)
	}
	return v.String(), nil
}

// EncodeUint64 将uint64编码为规范域元素字符串
func EncodeUint64(v uint64) string {
	// uint64恒小于模数，无需约简
	return new(big.Int).SetUint64(v).String()
}

// EncodeBigInt 将大整数模约简后编码为规范域元素字符串
func EncodeBigInt(v *big.Int) string {
	return new(big.Int).Mod(v, fr.Modulus()).String()
}

// EncodeBytes 将字节序列按大端无符号整数模约简后编码
//
// 用于把Keccak256等通用哈希的32字节输出归入标量域。
func EncodeBytes(b []byte) string {
	return EncodeBigInt(new(big.Int).SetBytes(b))
}

// ToHex32 将规范十进制域元素字符串序列化为固定64位十六进制（0x前缀，大端）
func ToHex32(decimal string) (string, error) {
	v, ok := new(big.Int).SetString(decimal, 10)
	if !ok || v.Sign() < 0 {
		return "", fmt.Errorf("非法域元素字符串: %s", decimal)
	}
	if v.Cmp(fr.Modulus()) >= 0 {
		return "", fmt.Errorf("数值超出域模数: %s", decimal)
	}
	return fmt.Sprintf("0x%064x", v), nil
}
