package utils

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// ========================================
// 核心金额解析函数（推荐使用）
// ========================================

const (
	// Decimals 美元金额的系统精度（6位小数，micro-units）
	Decimals = 6

	// MicrosPerUSD 1 USD = 10^6 micro-units
	MicrosPerUSD = 1_000_000
)

// ParseUSDToMicros 安全解析美元小数字符串为micro-units（uint64）
//
// 使用big.Rat进行无损精度计算，完全避免浮点误差。
// 超过6位小数的输入按四舍五入处理。这是全系统唯一一次取整，
// 发生在系统边界，下游任何组件都不得再次取整。
//
// 算法：
// 1. 使用big.Rat解析小数字符串
// 2. 乘以10^6转换为micro-units
// 3. 非整数结果按half-up取整
// 4. 检查uint64范围
//
// 参数：
//   - amountStr: 金额字符串（如 "199.99"）
//
// 返回：
//   - uint64: micro-units单位的金额（199.99 → 199990000）
//   - error: 解析或溢出错误
func ParseUSDToMicros(amountStr string) (uint64, error) {
	if amountStr = strings.TrimSpace(amountStr); amountStr == "" {
		return 0, nil
	}

	// 使用big.Rat进行无损解析
	rat, ok := new(big.Rat).SetString(amountStr)
	if !ok {
		return 0, fmt.Errorf("金额格式无效: %s", amountStr)
	}

	// 检查负数
	if rat.Sign() < 0 {
		return 0, fmt.Errorf("金额不能为负数: %s", amountStr)
	}

	// 乘以10^6转换为micro-units
	microsRat := new(big.Rat).Mul(rat, big.NewRat(MicrosPerUSD, 1))

	// half-up取整：q = num/den，余数*2 >= den时进位
	num := microsRat.Num()
	den := microsRat.Denom()
	quo, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	if new(big.Int).Lsh(rem, 1).Cmp(den) >= 0 {
		quo.Add(quo, big.NewInt(1))
	}

	if !quo.IsUint64() {
		return 0, fmt.Errorf("金额超出支持范围: %s", amountStr)
	}

	return quo.Uint64(), nil
}

// ParseMicrosSafely 安全解析整数micro-units字符串为uint64
//
// 算法说明：
// 1. 使用big.Int进行安全解析和范围验证
// 2. 检查是否超出uint64范围
// 3. 提供详细的错误信息
//
// 参数：
//   - amountStr: 金额字符串（如 "199990000" 表示 199.99 USD）
//
// 返回：
//   - uint64: 解析后的金额
//   - error: 解析错误
func ParseMicrosSafely(amountStr string) (uint64, error) {
	amountStr = strings.TrimSpace(amountStr)
	if amountStr == "" {
		return 0, nil
	}

	// 快速路径：尝试直接解析为uint64
	if amount, err := strconv.ParseUint(amountStr, 10, 64); err == nil {
		return amount, nil
	}

	// 使用big.Int进行安全解析
	bigAmount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok {
		return 0, fmt.Errorf("金额格式无效: %s", amountStr)
	}

	if bigAmount.Sign() < 0 {
		return 0, fmt.Errorf("金额不能为负数: %s", amountStr)
	}

	if !bigAmount.IsUint64() {
		return 0, fmt.Errorf("金额超出支持范围: %s", amountStr)
	}

	return bigAmount.Uint64(), nil
}

// FormatMicrosToUSD 将micro-units金额格式化为标准小数字符串
//
// 输出格式：整数部分 + "." + 小数部分（去除末尾0）
// 例如：199990000 → "199.99"，3000000 → "3.0"
//
// 参数：
//   - micros: micro-units单位的金额
//
// 返回：
//   - string: 标准小数格式的金额字符串
func FormatMicrosToUSD(micros uint64) string {
	integerPart := micros / MicrosPerUSD
	fractionalPart := micros % MicrosPerUSD

	if fractionalPart == 0 {
		return fmt.Sprintf("%d.0", integerPart)
	}

	fractionalStr := strings.TrimRight(fmt.Sprintf("%06d", fractionalPart), "0")
	return fmt.Sprintf("%d.%s", integerPart, fractionalStr)
}

// MulDivUint64 安全的乘除运算（防溢出）
//
// 计算 (x * multiplier) / divisor，使用big.Int避免中间结果溢出
//
// 参数：
//   - x: 被乘数
//   - multiplier: 乘数
//   - divisor: 除数
//
// 返回：
//   - uint64: 计算结果
//   - error: 溢出或除零错误
func MulDivUint64(x, multiplier, divisor uint64) (uint64, error) {
	if divisor == 0 {
		return 0, fmt.Errorf("除数不能为零")
	}

	result := new(big.Int).Mul(new(big.Int).SetUint64(x), new(big.Int).SetUint64(multiplier))
	result.Div(result, new(big.Int).SetUint64(divisor))

	if !result.IsUint64() {
		return 0, fmt.Errorf("计算结果溢出: (%d * %d) / %d", x, multiplier, divisor)
	}

	return result.Uint64(), nil
}
