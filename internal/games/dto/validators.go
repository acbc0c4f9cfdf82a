package dto

import (
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/LoganMeitz/votefinder/pkg/tally"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// RegisterCustomValidators registers the game-specific validation rules.
func RegisterCustomValidators(v *validator.Validate) {
	v.RegisterValidation("player_status", validatePlayerStatus)
	v.RegisterValidation("timezone", validateTimezone)
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

func validatePlayerStatus(fl validator.FieldLevel) bool {
	return tally.Status(fl.Field().String()).Valid()
}

// validateTimezone accepts IANA zone names; an empty value is left to "required".
func validateTimezone(fl validator.FieldLevel) bool {
	tz := fl.Field().String()
	if tz == "" {
		return true
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}
