package utils

import (
	"os"
	"path/filepath"
)

// ProjectRoot 获取项目根目录
//
// 优先级：PRICESHIELD_PROJECT_ROOT环境变量 → 从工作目录向上找go.mod →
// 工作目录本身。找不到go.mod时不报错，数据目录会落在当前目录下。
func ProjectRoot() string {
	if root := os.Getenv("PRICESHIELD_PROJECT_ROOT"); root != "" {
		return root
	}

	wd, err := os.Getwd()
	if err != nil {
		return "."
	}

	for dir := wd; ; {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return wd
		}
		dir = parent
	}
}

// ResolveDataPath 相对路径基于项目根目录解析，绝对路径原样返回
func ResolveDataPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(ProjectRoot(), path)
}

// EnsureDir 确保目录存在
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
