package zkclaim

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/priceshield/v1/internal/core/zkclaim/circuits"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/log"
	"github.com/priceshield/v1/pkg/utils"
)

// Artifacts 单个深度的电路工件（编译产物与可信设置）
type Artifacts struct {
	CS constraint.ConstraintSystem
	PK groth16.ProvingKey
	VK groth16.VerifyingKey
}

// ArtifactManager 电路工件管理器
//
// 工件按树深度缓存：编译和Setup开销大（秒级），每个深度只做一次，
// 结果持久化到工件目录供后续进程复用。
//
// ⚠️ 本地Setup生成的密钥只用于开发与本地验证；生产部署应替换为
// 多方可信设置仪式产出的密钥文件，且必须与链上验证合约登记的
// 验证密钥一致。
type ArtifactManager struct {
	dir          string
	tierPremiums []uint64
	logger       log.Logger

	mu    sync.Mutex
	cache map[int]*Artifacts
}

// NewArtifactManager 创建工件管理器
func NewArtifactManager(dir string, tierPremiums []uint64, logger log.Logger) *ArtifactManager {
	return &ArtifactManager{
		dir:          dir,
		tierPremiums: tierPremiums,
		logger:       logger,
		cache:        make(map[int]*Artifacts),
	}
}

// Get 获取指定深度的电路工件
// 优先级：内存缓存 → 工件目录文件 → 现场编译+Setup并持久化
func (m *ArtifactManager) Get(depth int) (*Artifacts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if artifacts, ok := m.cache[depth]; ok {
		return artifacts, nil
	}

	artifacts, err := m.loadFromDisk(depth)
	if err == nil {
		m.cache[depth] = artifacts
		return artifacts, nil
	}
	if !os.IsNotExist(err) && m.logger != nil {
		m.logger.Warnf("加载电路工件失败，回退到现场生成: depth=%d err=%v", depth, err)
	}

	artifacts, err = m.generate(depth)
	if err != nil {
		return nil, WrapArtifactLoadError(depth, err)
	}

	// 持久化失败不致命，下次启动重新生成即可
	if err := m.persist(depth, artifacts); err != nil && m.logger != nil {
		m.logger.Warnf("持久化电路工件失败: depth=%d err=%v", depth, err)
	}

	m.cache[depth] = artifacts
	return artifacts, nil
}

// generate 编译电路并执行Groth16可信设置
func (m *ArtifactManager) generate(depth int) (*Artifacts, error) {
	circuit, err := circuits.NewClaimCircuit(depth, m.tierPremiums)
	if err != nil {
		return nil, err
	}

	if m.logger != nil {
		m.logger.Infof("编译理赔电路并生成可信设置: depth=%d", depth)
	}

	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		return nil, fmt.Errorf("编译电路失败: %w", err)
	}

	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, fmt.Errorf("可信设置失败: %w", err)
	}

	return &Artifacts{CS: cs, PK: pk, VK: vk}, nil
}

// loadFromDisk 从工件目录加载已持久化的工件
func (m *ArtifactManager) loadFromDisk(depth int) (*Artifacts, error) {
	csFile, err := os.Open(m.artifactPath(depth, "r1cs"))
	if err != nil {
		return nil, err
	}
	defer func() { _ = csFile.Close() }()

	pkFile, err := os.Open(m.artifactPath(depth, "pk"))
	if err != nil {
		return nil, err
	}
	defer func() { _ = pkFile.Close() }()

	vkFile, err := os.Open(m.artifactPath(depth, "vk"))
	if err != nil {
		return nil, err
	}
	defer func() { _ = vkFile.Close() }()

	cs := groth16.NewCS(ecc.BN254)
	if _, err := cs.ReadFrom(csFile); err != nil {
		return nil, fmt.Errorf("读取约束系统失败: %w", err)
	}

	pk := groth16.NewProvingKey(ecc.BN254)
	if _, err := pk.ReadFrom(pkFile); err != nil {
		return nil, fmt.Errorf("读取证明密钥失败: %w", err)
	}

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(vkFile); err != nil {
		return nil, fmt.Errorf("读取验证密钥失败: %w", err)
	}

	return &Artifacts{CS: cs, PK: pk, VK: vk}, nil
}

// persist 把工件写入工件目录
func (m *ArtifactManager) persist(depth int, artifacts *Artifacts) error {
	if err := utils.EnsureDir(m.dir); err != nil {
		return err
	}

	if err := writeArtifact(m.artifactPath(depth, "r1cs"), artifacts.CS); err != nil {
		return err
	}
	if err := writeArtifact(m.artifactPath(depth, "pk"), artifacts.PK); err != nil {
		return err
	}
	return writeArtifact(m.artifactPath(depth, "vk"), artifacts.VK)
}

func (m *ArtifactManager) artifactPath(depth int, kind string) string {
	return filepath.Join(m.dir, fmt.Sprintf("claim_d%02d.%s", depth, kind))
}

func writeArtifact(path string, artifact io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := artifact.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
