package oracle

import (
	"errors"
	"fmt"
)

// ============================================================================
//                            预言机客户端错误定义
// ============================================================================

var (
	// ErrProductNotFound 商品未在价格目录中找到
	// 可重试错误：目录刷新后同一商品可能出现
	ErrProductNotFound = errors.New("product not found in price catalog")

	// ErrOracleRequest 预言机请求失败错误
	ErrOracleRequest = errors.New("oracle request failed")

	// ErrInvalidPayload 预言机负载非法错误
	ErrInvalidPayload = errors.New("invalid oracle payload")

	// ErrProofInvalid Merkle证明复算失败错误
	ErrProofInvalid = errors.New("merkle proof verification failed")
)

// ============================================================================
//                               错误包装函数
// ============================================================================

// WrapProductNotFoundError 包装商品未找到错误
func WrapProductNotFoundError(productID string) error {
	return fmt.Errorf("%w: productID=%s", ErrProductNotFound, productID)
}

// WrapOracleRequestError 包装预言机请求失败错误
func WrapOracleRequestError(endpoint string, err error) error {
	return fmt.Errorf("%w: endpoint=%s, cause=%v", ErrOracleRequest, endpoint, err)
}

// WrapOracleStatusError 包装预言机非2xx响应错误
// 响应体文本作为错误消息透传给调用方
func WrapOracleStatusError(endpoint string, status int, body string) error {
	return fmt.Errorf("%w: endpoint=%s, status=%d, body=%s", ErrOracleRequest, endpoint, status, body)
}

// WrapInvalidPayloadError 包装负载非法错误
func WrapInvalidPayloadError(endpoint string, err error) error {
	return fmt.Errorf("%w: endpoint=%s, cause=%v", ErrInvalidPayload, endpoint, err)
}

// WrapProofInvalidError 包装证明复算失败错误
// 路径折叠结果不等于证明自带的根，说明证明被篡改或预言机数据损坏
func WrapProofInvalidError(productID, root string) error {
	return fmt.Errorf("%w: productID=%s, root=%s", ErrProofInvalid, productID, root)
}
