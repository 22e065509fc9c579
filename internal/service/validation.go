package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Freeeeeet/peer_tutoring/internal/model"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// ключи ошибок совпадают с именами полей в JSON
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("booking_duration", func(fl validator.FieldLevel) bool {
		d := fl.Field().Int()
		return d >= model.MinBookingDuration && d <= model.MaxBookingDuration
	})
	return v
}

// validateInput проверяет структуру и возвращает BadRequest с картой поле -> сообщения
func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return internal(err)
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
	}
	return invalidFields(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "email":
		return "Invalid email"
	case "min":
		if fe.Kind() == reflect.String {
			return "Must contain at least " + fe.Param() + " character(s)"
		}
		if fe.Kind() == reflect.Slice {
			return "Must contain at least " + fe.Param() + " item(s)"
		}
		return "Must be greater than or equal to " + fe.Param()
	case "max":
		return "Must be less than or equal to " + fe.Param()
	case "gte":
		return "Must be greater than or equal to " + fe.Param()
	case "uuid":
		return "Invalid id"
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "datetime":
		return "Invalid datetime"
	case "booking_duration":
		return fmt.Sprintf("Must be between %d and %d minutes", model.MinBookingDuration, model.MaxBookingDuration)
	default:
		return "Invalid value"
	}
}
