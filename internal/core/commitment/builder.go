package commitment

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/priceshield/v1/internal/core/encoding"
	"github.com/priceshield/v1/internal/core/infrastructure/metrics"
	"github.com/priceshield/v1/internal/core/tier"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/log"
	"github.com/priceshield/v1/pkg/utils"
)

// ============================================================================
// 承诺构造器（CommitmentBuilder）
// ============================================================================
//
// 🎯 **设计目的**：
// 从发票数据派生购买承诺及其私有开启（opening）。承诺是发布到链上的
// 唯一公开值；开启（含盐）只存在于钱包本地的保单库中。
//
// 🏗️ **实现策略**：
// - orderNumber/productId 先经Keccak256通用哈希，再模约简进入标量域
// - 价格在边界一次性放大为micro-units（10^6）
// - 盐取自操作系统CSPRNG，32字节，是让承诺具备隐藏性的唯一机密
// - commitment = Poseidon2(orderHash, invoicePrice, invoiceDate,
//   productHash, salt, selectedTier)
//
// ⚠️ **注意**：
// - 随机数获取失败是致命错误（ErrRandomness），禁止退化到弱随机源
// - 盐绝不允许从其他输入确定性派生
//
// ============================================================================

// ErrRandomness 随机数生成失败错误（致命，必须中止承诺创建）
var ErrRandomness = errors.New("randomness generation failed")

// InvoiceData 发票数据（临时输入，不直接持久化）
type InvoiceData struct {
	OrderNumber      string `json:"order_number"`       // 订单号
	PurchasePriceUSD string `json:"purchase_price_usd"` // 购买价格（美元小数字符串）
	PurchaseDate     string `json:"purchase_date"`      // 购买日期（"2006-01-02"或RFC3339或unix秒）
	ProductID        string `json:"product_id"`         // 产品标识
}

// PurchaseDetails 承诺的私有开启
//
// ⚠️ 开启归派生它的承诺独占所有，绝不允许以明文上链。链上只出现
// 它的Poseidon哈希（即承诺本身）。
type PurchaseDetails struct {
	OrderHash    string `json:"order_hash"`    // 订单号哈希（域元素十进制字符串）
	InvoicePrice uint64 `json:"invoice_price"` // 发票价格（micro-units）
	InvoiceDate  int64  `json:"invoice_date"`  // 发票日期（unix秒）
	ProductHash  string `json:"product_hash"`  // 产品哈希（域元素十进制字符串）
	Salt         string `json:"salt"`          // 256位随机盐（域元素十进制字符串）
	SelectedTier uint32 `json:"selected_tier"` // 选定档位
}

// Result 承诺构造结果（每次投保动作产生一次，此后不可变）
type Result struct {
	Commitment string           `json:"commitment"` // 承诺（固定64位十六进制，0x前缀，大端）
	Details    *PurchaseDetails `json:"details"`    // 私有开启
	Tier       uint32           `json:"tier"`       // 档位
	Premium    uint64           `json:"premium"`    // 保费（micro-units）
}

// Builder 承诺构造器
type Builder struct {
	table   *tier.Table
	encoder *encoding.Encoder
	logger  log.Logger
	rand    io.Reader
}

// NewBuilder 创建承诺构造器
func NewBuilder(table *tier.Table, encoder *encoding.Encoder, logger log.Logger) *Builder {
	return &Builder{
		table:   table,
		encoder: encoder,
		logger:  logger,
		rand:    rand.Reader,
	}
}

// Build 从发票数据构造购买承诺
//
// 盐来自CSPRNG；随机数获取失败时返回ErrRandomness并中止，
// 这是引擎中唯一允许阻塞等待系统熵的位置。
func (b *Builder) Build(invoice InvoiceData) (*Result, error) {
	salt, err := b.drawSalt()
	if err != nil {
		return nil, err
	}
	return b.BuildWithSalt(invoice, salt)
}

// BuildWithSalt 使用指定盐构造承诺
//
// 同一发票与同一盐的构造结果是确定的（崩溃恢复与测试依赖该性质）。
func (b *Builder) BuildWithSalt(invoice InvoiceData, salt *big.Int) (*Result, error) {
	if strings.TrimSpace(invoice.OrderNumber) == "" {
		return nil, fmt.Errorf("订单号不能为空")
	}
	if strings.TrimSpace(invoice.ProductID) == "" {
		return nil, fmt.Errorf("产品标识不能为空")
	}

	// 步骤1: 订单号经通用哈希归入标量域
	orderHash := hashToField(invoice.OrderNumber)

	// 步骤2: 价格放大为micro-units（边界处唯一一次取整）
	priceMicros, err := utils.ParseUSDToMicros(invoice.PurchasePriceUSD)
	if err != nil {
		return nil, fmt.Errorf("解析购买价格失败: %w", err)
	}

	// 步骤3: 购买日期解析为unix秒
	invoiceDate, err := parsePurchaseDate(invoice.PurchaseDate)
	if err != nil {
		return nil, fmt.Errorf("解析购买日期失败: %w", err)
	}

	// 步骤4: 产品标识哈希归域
	productHash := hashToField(invoice.ProductID)

	// 步骤5/6: 档位分类（价格越界时ErrPriceOutOfRange原样向上传播）
	boundary, err := b.table.Classify(priceMicros)
	if err != nil {
		return nil, err
	}

	saltField := new(big.Int).Mod(salt, encoding.Modulus())

	// 步骤7: Poseidon承诺
	c := HashFields(
		orderHash,
		new(big.Int).SetUint64(priceMicros),
		big.NewInt(invoiceDate),
		productHash,
		saltField,
		new(big.Int).SetUint64(uint64(boundary.Tier)),
	)

	result := &Result{
		Commitment: fmt.Sprintf("0x%064x", c),
		Details: &PurchaseDetails{
			OrderHash:    orderHash.String(),
			InvoicePrice: priceMicros,
			InvoiceDate:  invoiceDate,
			ProductHash:  productHash.String(),
			Salt:         saltField.String(),
			SelectedTier: boundary.Tier,
		},
		Tier:    boundary.Tier,
		Premium: boundary.Premium,
	}

	if b.logger != nil {
		b.logger.Debugf("承诺构造完成: tier=%d premium=%d commitment=%s...",
			result.Tier, result.Premium, result.Commitment[:10])
	}
	metrics.IncCommitmentBuilt()

	return result, nil
}

// drawSalt 从CSPRNG抽取256位盐
func (b *Builder) drawSalt() (*big.Int, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(b.rand, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomness, err)
	}
	return new(big.Int).SetBytes(buf), nil
}

// hashToField 通用哈希后模约简进入标量域
func hashToField(s string) *big.Int {
	digest := ethcrypto.Keccak256([]byte(s))
	return new(big.Int).Mod(new(big.Int).SetBytes(digest), encoding.Modulus())
}

// parsePurchaseDate 解析购买日期为unix秒
//
// 依次尝试："2006-01-02"、RFC3339、纯整数unix秒。
func parsePurchaseDate(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("购买日期不能为空")
	}

	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.Unix(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Unix(), nil
	}
	if sec, err := strconv.ParseInt(raw, 10, 64); err == nil && sec >= 0 {
		return sec, nil
	}

	return 0, fmt.Errorf("无法识别的日期格式: %s", raw)
}
