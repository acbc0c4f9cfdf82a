package dto

import (
	"fmt"
	"strings"
	"sync"

	"github.com/LoganMeitz/votefinder/internal/scheduler/services"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// RegisterCustomValidators registers the scheduler validation rules.
func RegisterCustomValidators(v *validator.Validate) {
	v.RegisterValidation("cron", validateCronExpression)
}

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		RegisterCustomValidators(validate)
	})
	return validate
}

// ValidateSchedule checks a six-field cron expression.
func ValidateSchedule(expr string) error {
	if err := instance().Var(expr, "required,cron"); err != nil {
		return fmt.Errorf("invalid cron schedule %q", expr)
	}
	return nil
}

// validateCronExpression accepts six fields, seconds first, or a descriptor such as @hourly.
func validateCronExpression(fl validator.FieldLevel) bool {
	expr := strings.TrimSpace(fl.Field().String())
	if expr == "" {
		return false
	}
	if !strings.HasPrefix(expr, "@") && len(strings.Fields(expr)) != 6 {
		return false
	}
	_, err := services.Parser.Parse(expr)
	return err == nil
}
