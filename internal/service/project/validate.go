package project

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"clientdesk/internal/model"

	"github.com/go-playground/validator/v10"
)

// 只允许数字、空格和 -+()
var phonePattern = regexp.MustCompile(`^[0-9\s\-+()]+$`)

// RegisterValidators 注册自定义 tag，gin 的 binding 引擎和服务层共用
// 错误信息里使用 json 字段名
func RegisterValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	if err := RegisterValidators(v); err != nil {
		panic(err)
	}
	return v
}

// ValidationMessage 取第一个字段错误转成可读信息
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Please enter a valid email address"
	case "phone":
		return "Please enter a valid phone number"
	}
	return fe.Field() + " is invalid"
}

func (s *Service) validateInquiry(in *model.Inquiry) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.ProjectType = strings.TrimSpace(in.ProjectType)
	in.Requirements = strings.TrimSpace(in.Requirements)

	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, ValidationMessage(err))
	}
	return nil
}
