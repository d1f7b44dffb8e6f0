package zkclaim

import (
	"errors"
	"fmt"
)

// ============================================================================
//                            理赔证明错误定义
// ============================================================================

var (
	// ErrInputAssembly 电路输入装配失败错误
	ErrInputAssembly = errors.New("circuit input assembly failed")

	// ErrArtifactLoad 电路工件加载失败错误
	ErrArtifactLoad = errors.New("circuit artifact load failed")

	// ErrProofGeneration 证明生成失败错误
	// 可重试错误：包装底层prover的失败原因
	ErrProofGeneration = errors.New("proof generation failed")

	// ErrProofExport 证明导出失败错误
	ErrProofExport = errors.New("proof export failed")
)

// ============================================================================
//                               错误包装函数
// ============================================================================

// WrapInputAssemblyError 包装输入装配失败错误
func WrapInputAssemblyError(field string, err error) error {
	return fmt.Errorf("%w: field=%s, cause=%v", ErrInputAssembly, field, err)
}

// WrapArtifactLoadError 包装工件加载失败错误
func WrapArtifactLoadError(depth int, err error) error {
	return fmt.Errorf("%w: depth=%d, cause=%v", ErrArtifactLoad, depth, err)
}

// WrapProofGenerationError 包装证明生成失败错误
func WrapProofGenerationError(err error) error {
	return fmt.Errorf("%w: cause=%v", ErrProofGeneration, err)
}
