package server

import (
	"fmt"
	"sync"
	"time"

	"medcare-admin/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const shutdownTimeout = 10 * time.Second

var (
	registerOnce sync.Once
	registerErr  error
)

// registerValidators adds the domain validation tags to gin's validator
func registerValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}

		validations := map[string]validator.Func{
			"category": func(fl validator.FieldLevel) bool {
				return model.IsValidCategory(fl.Field().String())
			},
			"orderstatus": func(fl validator.FieldLevel) bool {
				return model.OrderStatus(fl.Field().String()).IsValid()
			},
			"paymentstatus": func(fl validator.FieldLevel) bool {
				return model.IsValidPaymentStatus(fl.Field().String())
			},
		}
		for tag, fn := range validations {
			if err := v.RegisterValidation(tag, fn); err != nil {
				registerErr = fmt.Errorf("failed to register %s validator: %w", tag, err)
				return
			}
		}
	})
	return registerErr
}
