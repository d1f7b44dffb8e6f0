// Package zkclaim 实现理赔证明构建器（ClaimProofBuilder）
//
// 🎯 **核心职责**：
// - 把保单记录与预言机证明装配成电路的命名输入（经FieldEncoder规范化）
// - 用Groth16生成理赔证明，并在本地尝试验证（失败仅告警）
// - 把证明导出为链上验证合约期望的坐标编码
package zkclaim

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/priceshield/v1/internal/core/encoding"
	"github.com/priceshield/v1/internal/core/oracle"
	"github.com/priceshield/v1/internal/core/policy"
	"github.com/priceshield/v1/internal/core/tier"
	"github.com/priceshield/v1/internal/core/zkclaim/circuits"
)

// PremiumSchedule 从档位表导出电路费率常量（下标=档位-1）
//
// 电路内的tier→premium对应约束以该序列为准，必须与投保路径使用的
// 档位表保持同一来源。
func PremiumSchedule(table *tier.Table) []uint64 {
	boundaries := table.Boundaries()
	premiums := make([]uint64, len(boundaries))
	for _, b := range boundaries {
		if int(b.Tier) >= 1 && int(b.Tier) <= len(premiums) {
			premiums[b.Tier-1] = b.Premium
		}
	}
	return premiums
}

// CircuitInputs 电路命名输入
//
// 全部字段都是FieldEncoder规范化后的十进制域元素字符串，
// 与电路的witness字段一一对应。
type CircuitInputs struct {
	// 私有输入
	OrderHash    string   `json:"orderHash"`
	InvoicePrice string   `json:"invoicePrice"`
	InvoiceDate  string   `json:"invoiceDate"`
	ProductHash  string   `json:"productHash"`
	Salt         string   `json:"salt"`
	SelectedTier string   `json:"selectedTier"`
	Siblings     []string `json:"siblings"`
	PathIndices  []string `json:"pathIndices"`

	// 公开输入
	Commitment   string `json:"commitment"`
	MerkleRoot   string `json:"merkleRoot"`
	CurrentPrice string `json:"currentPrice"`
	Leaf         string `json:"leaf"`
	PurchaseDate string `json:"purchaseDate"`
	Premium      string `json:"premium"`
	Threshold    string `json:"threshold"`
}

// InputBuilder 电路输入装配器
type InputBuilder struct {
	encoder      *encoding.Encoder
	depth        int
	thresholdPct uint64
}

// NewInputBuilder 创建电路输入装配器
func NewInputBuilder(encoder *encoding.Encoder, depth int, thresholdPct uint64) *InputBuilder {
	return &InputBuilder{
		encoder:      encoder,
		depth:        depth,
		thresholdPct: thresholdPct,
	}
}

// BuildInputs 从保单记录与预言机证明装配电路输入
//
// 保单的每个私有/公开字段都经FieldEncoder规范化为域元素字符串。
// Merkle根取调用方传入的值（理赔路径用账本根，本地验证用快照根），
// 路径长度必须等于电路深度。
func (b *InputBuilder) BuildInputs(record *policy.PolicyRecord, proof *oracle.MerkleProof, merkleRoot string) (*CircuitInputs, error) {
	if record == nil || record.Details == nil {
		return nil, WrapInputAssemblyError("details", fmt.Errorf("保单缺少私有开启"))
	}
	if proof == nil {
		return nil, WrapInputAssemblyError("proof", fmt.Errorf("缺少merkle证明"))
	}
	if len(proof.Siblings) != b.depth {
		return nil, WrapInputAssemblyError("siblings",
			fmt.Errorf("路径长度与电路深度不匹配: %d != %d", len(proof.Siblings), b.depth))
	}

	details := record.Details

	commitmentField, err := b.encoder.EncodeStrict(record.SecretCommitment)
	if err != nil {
		return nil, WrapInputAssemblyError("commitment", err)
	}
	rootField, err := b.encoder.EncodeStrict(merkleRoot)
	if err != nil {
		return nil, WrapInputAssemblyError("merkleRoot", err)
	}

	siblings := make([]string, len(proof.Siblings))
	for i, s := range proof.Siblings {
		siblings[i] = b.encoder.Encode(s)
	}
	pathIndices := make([]string, len(proof.PathIndices))
	for i, idx := range proof.PathIndices {
		pathIndices[i] = strconv.Itoa(idx)
	}

	invoiceDate := encoding.EncodeUint64(uint64(details.InvoiceDate))

	return &CircuitInputs{
		OrderHash:    b.encoder.Encode(details.OrderHash),
		InvoicePrice: encoding.EncodeUint64(details.InvoicePrice),
		InvoiceDate:  invoiceDate,
		ProductHash:  b.encoder.Encode(details.ProductHash),
		Salt:         b.encoder.Encode(details.Salt),
		SelectedTier: encoding.EncodeUint64(uint64(details.SelectedTier)),
		Siblings:     siblings,
		PathIndices:  pathIndices,

		Commitment:   commitmentField,
		MerkleRoot:   rootField,
		CurrentPrice: encoding.EncodeUint64(proof.CurrentPrice),
		Leaf:         b.encoder.Encode(proof.Leaf),
		// 保单起始日期与承诺中的发票日期同源
		PurchaseDate: invoiceDate,
		Premium:      encoding.EncodeUint64(record.Premium),
		Threshold:    encoding.EncodeUint64(b.thresholdPct),
	}, nil
}

// ToAssignment 把命名输入转换为电路witness赋值
func (in *CircuitInputs) ToAssignment(tierPremiums []uint64) (*circuits.ClaimCircuit, error) {
	assignment, err := circuits.NewClaimCircuit(len(in.Siblings), tierPremiums)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{
		"orderHash":    in.OrderHash,
		"invoicePrice": in.InvoicePrice,
		"invoiceDate":  in.InvoiceDate,
		"productHash":  in.ProductHash,
		"salt":         in.Salt,
		"selectedTier": in.SelectedTier,
		"commitment":   in.Commitment,
		"merkleRoot":   in.MerkleRoot,
		"currentPrice": in.CurrentPrice,
		"purchaseDate": in.PurchaseDate,
		"premium":      in.Premium,
		"threshold":    in.Threshold,
	}
	parsed := make(map[string]*big.Int, len(fields))
	for name, raw := range fields {
		v, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return nil, WrapInputAssemblyError(name, fmt.Errorf("非法域元素字符串: %q", raw))
		}
		parsed[name] = v
	}

	assignment.OrderHash = parsed["orderHash"]
	assignment.InvoicePrice = parsed["invoicePrice"]
	assignment.InvoiceDate = parsed["invoiceDate"]
	assignment.ProductHash = parsed["productHash"]
	assignment.Salt = parsed["salt"]
	assignment.Tier = parsed["selectedTier"]
	assignment.Commitment = parsed["commitment"]
	assignment.MerkleRoot = parsed["merkleRoot"]
	assignment.CurrentPrice = parsed["currentPrice"]
	assignment.PurchaseDate = parsed["purchaseDate"]
	assignment.Premium = parsed["premium"]
	assignment.Threshold = parsed["threshold"]

	for i, raw := range in.Siblings {
		v, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return nil, WrapInputAssemblyError("siblings", fmt.Errorf("非法域元素字符串: %q", raw))
		}
		assignment.Siblings[i] = v
	}
	for i, raw := range in.PathIndices {
		v, err := strconv.Atoi(raw)
		if err != nil || (v != 0 && v != 1) {
			return nil, WrapInputAssemblyError("pathIndices", fmt.Errorf("非法路径方向: %q", raw))
		}
		assignment.PathIndices[i] = v
	}

	return assignment, nil
}
