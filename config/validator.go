package config

// Validator 配置验证接口（各模块的配置结构实现）
type Validator interface {
	Validate() error
}

// ValidateAll 依次验证，返回第一个错误
func ValidateAll(validators ...Validator) error {
	for _, v := range validators {
		if v == nil {
			continue
		}
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
