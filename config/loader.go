package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Loader 多数据源配置加载器
// 各数据源按优先级从低到高合并，高优先级覆盖低优先级
type Loader struct {
	sources      []ConfigSource
	mergedConfig map[string]interface{} // flat, 点号分隔的 key
	v            *viper.Viper
	loadedFiles  []string
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{
		sources:      make([]ConfigSource, 0),
		mergedConfig: make(map[string]interface{}),
		v:            viper.New(),
	}
}

// AddSource 添加配置数据源
func (l *Loader) AddSource(source ConfigSource) {
	l.sources = append(l.sources, source)
}

// Load 加载并合并所有数据源
func (l *Loader) Load() error {
	sort.SliceStable(l.sources, func(i, j int) bool {
		return l.sources[i].Priority() < l.sources[j].Priority()
	})

	merged := make(map[string]interface{})
	files := make([]string, 0)
	for _, source := range l.sources {
		data, err := source.Load()
		if err != nil {
			return fmt.Errorf("加载数据源 %s 失败: %w", source.Name(), err)
		}
		if fs, ok := source.(*FileSource); ok && fs.Exists() {
			files = append(files, fs.path)
		}
		for key, value := range data {
			merged[strings.ToLower(key)] = value
		}
	}

	l.mergedConfig = merged
	l.loadedFiles = files
	l.syncToViper()
	return nil
}

// syncToViper 把合并后的 flat map 还原为嵌套结构写入 viper
func (l *Loader) syncToViper() {
	nested := unflattenMap(l.mergedConfig)

	l.v = viper.New()
	for key, value := range nested {
		l.v.Set(key, value)
	}
}

// unflattenMap {"event.pool_size": 8} -> {"event": {"pool_size": 8}}
func unflattenMap(flat map[string]interface{}) map[string]interface{} {
	// 短 key 先写，保证 "a.b" 覆盖 "a" 时结果稳定
	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make(map[string]interface{})
	for _, key := range keys {
		setNestedValue(result, splitKey(key), flat[key])
	}
	return result
}

func setNestedValue(m map[string]interface{}, keys []string, value interface{}) {
	if len(keys) == 0 {
		return
	}

	current := m
	for _, k := range keys[:len(keys)-1] {
		nested, ok := current[k].(map[string]interface{})
		if !ok {
			nested = make(map[string]interface{})
			current[k] = nested
		}
		current = nested
	}
	current[keys[len(keys)-1]] = value
}

// splitKey 按点号拆分，忽略空段
func splitKey(key string) []string {
	parts := strings.Split(key, ".")
	result := parts[:0]
	for _, p := range parts {
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// Unmarshal 把 key 对应的配置段解析到结构体（实现 component.ConfigLoader）
func (l *Loader) Unmarshal(key string, v interface{}) error {
	if key == "" {
		return l.v.Unmarshal(v)
	}
	return l.v.UnmarshalKey(key, v)
}

// UnmarshalAll 把全部配置解析到结构体
func (l *Loader) UnmarshalAll(v interface{}) error {
	return l.v.Unmarshal(v)
}

func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

func (l *Loader) GetInt(key string) int {
	return l.v.GetInt(key)
}

func (l *Loader) GetBool(key string) bool {
	return l.v.GetBool(key)
}

// IsSet 配置项是否存在
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// AllSettings 返回嵌套结构的全部配置
func (l *Loader) AllSettings() map[string]interface{} {
	return l.v.AllSettings()
}

// GetLoadedFiles 实际读取到的配置文件
func (l *Loader) GetLoadedFiles() []string {
	return l.loadedFiles
}

// GetViper 获取底层 Viper 实例
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// Reload 重新加载所有数据源
func (l *Loader) Reload() error {
	return l.Load()
}
