package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Ishwarya142/plantiq/pkg/models"
	"github.com/go-playground/validator/v10"
)

// validate is shared by every handler. Custom tags are registered once here.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("analysiskind", func(fl validator.FieldLevel) bool {
		return models.AnalysisKind(fl.Field().String()).Valid()
	}); err != nil {
		panic(fmt.Sprintf("register analysiskind validation: %v", err))
	}
	return v
}

// validationDetails maps each failing field to a readable message.
func validationDetails(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string][]string{"_": {err.Error()}}
	}
	details := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		details[field] = append(details[field], fieldMessage(fe))
	}
	return details
}

// firstValidationMessage flattens a validation error for the function
// endpoints, which answer with a single message.
func firstValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Sprintf("%s: %s", verrs[0].Field(), fieldMessage(verrs[0]))
	}
	return err.Error()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "analysiskind":
		return fmt.Sprintf("unknown analysis type %q", fe.Value())
	case "email":
		return "must be a valid email address"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
