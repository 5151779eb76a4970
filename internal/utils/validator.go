package utils

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct 校验结构体，返回 字段 -> 错误信息
func ValidateStruct(data interface{}) map[string]string {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	errs := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range validationErrors {
			errs[fe.Field()] = fieldErrorMessage(fe)
		}
	} else {
		errs["_"] = err.Error()
	}
	return errs
}

func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "不能为空"
	case "email":
		return "邮箱格式不正确"
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("至少需要 %s 个字符", fe.Param())
		}
		return fmt.Sprintf("不能小于 %s", fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("最多 %s 个字符", fe.Param())
		}
		return fmt.Sprintf("不能大于 %s", fe.Param())
	default:
		return fmt.Sprintf("%s 无效", fe.Field())
	}
}

// FormatValidationErrors 合并为一条消息（按字段名排序）
func FormatValidationErrors(errs map[string]string) string {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(errs))
	for _, f := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f, errs[f]))
	}
	return strings.Join(msgs, "; ")
}
