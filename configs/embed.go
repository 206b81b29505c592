// Package configs 嵌入默认配置文件
package configs

import _ "embed"

// 未指定 --config 时使用的默认配置
//
//go:embed keycore.json
var defaultConfig []byte

// GetDefaultConfig 获取默认配置内容
func GetDefaultConfig() []byte {
	return defaultConfig
}
