// Package storage 定义PriceShield的存储基础设施接口
//
// 📋 **存储接口 (Storage Interface)**
//
// 保单库（PolicyStore）以键值对方式持久化每个钱包地址的保单与承诺记录，
// 底层由BadgerDB实现。接口只暴露协议引擎需要的最小能力：
// 读、写、删、存在性检查，以及关闭。
//
// ⚠️ **注意**：
// - Set必须是单键原子写入（不允许部分覆盖），保证崩溃安全
// - Get在键不存在时返回ErrKeyNotFound，而不是空值
package storage

import "errors"

// ErrKeyNotFound 键不存在错误
var ErrKeyNotFound = errors.New("storage: key not found")

// KVStore 键值存储接口
type KVStore interface {
	// Get 读取指定键的值，键不存在时返回ErrKeyNotFound
	Get(key string) ([]byte, error)

	// Set 原子写入指定键的值
	Set(key string, value []byte) error

	// Delete 删除指定键（键不存在时为no-op）
	Delete(key string) error

	// Has 判断键是否存在
	Has(key string) (bool, error)

	// Close 关闭存储，释放底层资源
	Close() error
}
