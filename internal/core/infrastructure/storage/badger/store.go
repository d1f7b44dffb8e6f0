// Package badger 提供基于BadgerDB的键值存储实现
//
// 保单库（PolicyStore）的持久化后端。BadgerDB的单键事务天然满足
// 接口要求的原子写入语义：Set要么整体成功要么整体失败，
// 崩溃后不会留下半写的保单集合。
package badger

import (
	"fmt"
	"os"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v3"
	badgerconfig "github.com/priceshield/v1/internal/config/storage/badger"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/log"
	"github.com/priceshield/v1/pkg/interfaces/infrastructure/storage"
	"github.com/priceshield/v1/pkg/utils"
)

// Store 实现storage.KVStore接口
type Store struct {
	db     *badgerdb.DB
	logger log.Logger

	closeOnce sync.Once
	closeErr  error
}

// New 创建BadgerDB存储实例
//
// 磁盘模式下会按需创建数据目录；内存模式（测试、一次性查询）
// 不触碰文件系统。
func New(config *badgerconfig.Config, logger log.Logger) (*Store, error) {
	var opts badgerdb.Options

	if config.IsInMemory() {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		dataDir := config.GetPath()
		if dataDir == "" {
			dataDir = utils.ResolveDataPath("./data/badger")
			if logger != nil {
				logger.Warnf("BadgerDB数据目录未配置，使用默认路径: %s", dataDir)
			}
		}
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return nil, fmt.Errorf("创建BadgerDB数据目录失败: %w", err)
		}

		opts = badgerdb.DefaultOptions(dataDir)
		opts.SyncWrites = config.IsSyncWritesEnabled()
	}

	opts.MemTableSize = config.GetMemTableSize()
	// 单机保单库的数据量远小于默认缓存假设，压低缓存减少常驻内存
	opts.BlockCacheSize = 32 << 20
	opts.IndexCacheSize = 32 << 20
	opts.NumMemtables = 2
	opts.Logger = nil

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("打开BadgerDB失败: %w", err)
	}

	if logger != nil {
		logger.Infof("BadgerDB存储已就绪: path=%s, inMemory=%v", config.GetPath(), config.IsInMemory())
	}

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// Get 读取指定键的值
func (s *Store) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if err == badgerdb.ErrKeyNotFound {
			return nil, storage.ErrKeyNotFound
		}
		return nil, fmt.Errorf("读取键失败: key=%s, cause=%w", key, err)
	}
	return value, nil
}

// Set 原子写入指定键的值
func (s *Store) Set(key string, value []byte) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("写入键失败: key=%s, cause=%w", key, err)
	}
	return nil
}

// Delete 删除指定键，键不存在时为no-op
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil && err != badgerdb.ErrKeyNotFound {
		return fmt.Errorf("删除键失败: key=%s, cause=%w", key, err)
	}
	return nil
}

// Has 判断键是否存在
func (s *Store) Has(key string) (bool, error) {
	err := s.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if err == badgerdb.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("检查键失败: key=%s, cause=%w", key, err)
	}
	return true, nil
}

// Close 关闭数据库，幂等
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}
