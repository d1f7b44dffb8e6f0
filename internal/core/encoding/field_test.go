package encoding

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEncodeDecimalInteger 测试纯整数编码
func TestEncodeDecimalInteger(t *testing.T) {
	enc := NewEncoder(nil)

	assert.Equal(t, "199990000", enc.Encode("199990000"))
	assert.Equal(t, "0", enc.Encode("0"))
}

// TestEncodeFractionalUSD 测试含小数的美元金额在边界一次性放大取整
func TestEncodeFractionalUSD(t *testing.T) {
	enc := NewEncoder(nil)

	// 199.99 USD → 199990000 micro-units
	assert.Equal(t, "199990000", enc.Encode("199.99"))
	// 七位小数half-up取整
	assert.Equal(t, "1000001", enc.Encode("1.0000005"))
}

// TestEncodeHex 测试十六进制大端解析与模约简
func TestEncodeHex(t *testing.T) {
	enc := NewEncoder(nil)

	assert.Equal(t, "255", enc.Encode("0xff"))
	assert.Equal(t, "255", enc.Encode("0XFF"))

	// 超出模数的输入必须被约简到域内
	over := new(big.Int).Add(Modulus(), big.NewInt(7))
	got := enc.Encode("0x" + over.Text(16))
	assert.Equal(t, "7", got)
}

// TestEncodeTotalOnBadInput 测试全函数策略：坏输入编码为域零
func TestEncodeTotalOnBadInput(t *testing.T) {
	enc := NewEncoder(nil)

	assert.Equal(t, "0", enc.Encode(""))
	assert.Equal(t, "0", enc.Encode("not-a-number"))
	assert.Equal(t, "0", enc.Encode("0xZZ"))
}

// TestEncodeStrict 测试严格模式在坏输入时报错
func TestEncodeStrict(t *testing.T) {
	enc := NewEncoder(nil)

	got, err := enc.EncodeStrict("42")
	require.NoError(t, err)
	assert.Equal(t, "42", got)

	_, err = enc.EncodeStrict("not-a-number")
	require.Error(t, err)

	_, err = enc.EncodeStrict("")
	require.Error(t, err)
}

// TestHexRoundTrip 测试往返性质：哈希的十六进制输出重新解析等于原整数值
func TestHexRoundTrip(t *testing.T) {
	enc := NewEncoder(nil)

	original := enc.Encode("123456789123456789")
	hex, err := ToHex32(original)
	require.NoError(t, err)
	assert.Len(t, hex, 66) // 0x + 64位

	again := enc.Encode(hex)
	assert.Equal(t, original, again)
}

// TestToHex32Rejects 测试非法域元素字符串被拒绝
func TestToHex32Rejects(t *testing.T) {
	_, err := ToHex32("not-a-number")
	require.Error(t, err)

	_, err = ToHex32(Modulus().String())
	require.Error(t, err)
}

// TestEncodeBytes 测试字节序列归域
func TestEncodeBytes(t *testing.T) {
	got := EncodeBytes([]byte{0x01, 0x00})
	assert.Equal(t, "256", got)
}
