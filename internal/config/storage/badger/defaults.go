package badger

import (
	"github.com/priceshield/v1/pkg/utils"
)

// BadgerDB存储默认配置值

// getDefaultPath 获取默认数据库路径（使用路径解析工具）
// 原因：统一的数据目录便于管理和备份，确保路径解析正确
func getDefaultPath() string {
	return utils.ResolveDataPath("./data/badger")
}

const (
	// defaultSyncWrites 默认启用同步写入
	// 原因：保单承诺和私密数据一旦丢失将无法重建（salt不可恢复），
	// 同步写入保证落盘后才确认，性能损失可以接受
	defaultSyncWrites = true

	// defaultInMemory 默认使用磁盘模式
	// 原因：内存模式只适合测试场景，保单数据必须持久化
	defaultInMemory = false

	// defaultMemTableSize 默认内存表大小为64MB
	// 原因：保单记录体量小，64MB足够覆盖正常写入压力
	defaultMemTableSize = 64 << 20 // 64MB
)
