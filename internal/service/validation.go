package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

// newRecordsValidator registers the domain tags used by request structs.
func newRecordsValidator(validate *validator.Validate) *validator.Validate {
	if validate == nil {
		validate = validator.New()
	}
	validate.RegisterTagNameFunc(jsonFieldName)
	_ = validate.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("behavior_severity", func(fl validator.FieldLevel) bool {
		return models.BehaviorSeverity(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("behavior_status", func(fl validator.FieldLevel) bool {
		return models.BehaviorStatus(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("report_type", func(fl validator.FieldLevel) bool {
		return models.ReportType(fl.Field().String()).Valid()
	})
	validate.RegisterAlias("clock", "datetime=15:04|datetime=15:04:05")
	return validate
}

// invalidPayload turns validator failures into a validation error listing the
// offending JSON fields and the rule each one broke.
func invalidPayload(err error, what string) error {
	appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msg(msgInvalidPayload, what))
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErr
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		details[field] = fe.Tag()
	}
	return appErr.WithDetails(details)
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}
