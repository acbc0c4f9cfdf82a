package dto

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// RegisterCustomValidators registers the vote-specific validation rules.
func RegisterCustomValidators(v *validator.Validate) {
	v.RegisterValidation("decision", validateDecision)
}

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		RegisterCustomValidators(validate)
	})
	return validate
}

// Validate checks the struct's validate tags and flattens the failures into one error.
func Validate(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid request: %s", strings.Join(msgs, ", "))
}

func validateDecision(fl validator.FieldLevel) bool {
	switch Decision(fl.Field().String()) {
	case DecisionAssign, DecisionIgnore, DecisionNoExecute:
		return true
	}
	return false
}
