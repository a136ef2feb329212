package config

import (
	"fmt"
	"reflect"
	"strings"
)

// FlagSource 命令行参数数据源
// 通过结构体的 config tag 把字段映射到配置 key，零值字段视为未设置
//
//	type Flags struct {
//	    PoolSize int  `config:"event.pool_size"`
//	    Metrics  bool `config:"event.metrics,telemetry.metrics.enabled"`
//	}
type FlagSource struct {
	flags    interface{}
	priority int
}

// NewFlagSource 创建命令行参数数据源
func NewFlagSource(flags interface{}, priority int) *FlagSource {
	return &FlagSource{
		flags:    flags,
		priority: priority,
	}
}

// Name 数据源名称
func (s *FlagSource) Name() string {
	return "flags"
}

// Priority 优先级
func (s *FlagSource) Priority() int {
	return s.priority
}

// Load 加载命令行参数配置
func (s *FlagSource) Load() (map[string]interface{}, error) {
	result := make(map[string]interface{})

	if s.flags == nil {
		return result, nil
	}

	v := reflect.ValueOf(s.flags)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return result, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("flags must be a struct or pointer to struct, got %s", v.Kind())
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanInterface() || field.IsZero() {
			continue
		}

		// 一个字段可映射多个 key，逗号分隔
		for _, key := range strings.Split(t.Field(i).Tag.Get("config"), ",") {
			key = strings.TrimSpace(key)
			if key == "" || key == "-" {
				continue
			}
			result[key] = field.Interface()
		}
	}

	return result, nil
}
