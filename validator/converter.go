// Package validator 统一的参数校验和错误转换
package validator

import (
	"errors"

	"github.com/KOMKZ/go-yogan-asyncevent/errcode"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrValidationFailed 通用校验失败（模块码 1 common，业务码 1010）
var ErrValidationFailed = errcode.Register(errcode.New(1, 1010, "common", "error.common.validation_failed", "validation failed"))

// Validatable 可校验接口
type Validatable interface {
	Validate() error
}

// ValidateRequest 通用校验函数
// ozzo-validation 字段错误转换为 LayeredError，其它错误原样返回
func ValidateRequest(req Validatable) error {
	err := req.Validate()
	if err == nil {
		return nil
	}

	var validationErrs validation.Errors
	if errors.As(err, &validationErrs) {
		return ConvertValidationError(validationErrs)
	}
	return err
}

// ConvertValidationError 把字段级错误放入 data["fields"]
// 消息形如 "validation failed: pool_size: must be no less than 1."
func ConvertValidationError(validationErrs validation.Errors) error {
	fields := make(map[string]string, len(validationErrs))
	for field, fieldErr := range validationErrs {
		if fieldErr != nil {
			fields[field] = fieldErr.Error()
		}
	}

	return ErrValidationFailed.
		WithData("fields", fields).
		Wrap(validationErrs)
}

// FieldErrors 从错误链中取出字段级错误，没有时返回 nil
func FieldErrors(err error) map[string]string {
	var le *errcode.LayeredError
	for errors.As(err, &le) {
		if le.Is(ErrValidationFailed) {
			fields, _ := le.Data()["fields"].(map[string]string)
			return fields
		}
		err = le.Unwrap()
	}
	return nil
}
