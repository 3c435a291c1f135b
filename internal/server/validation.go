package server

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Abhijeetjrock/db-analyzer1/internal/dialect"
)

var registerOnce sync.Once

// registerValidators adds the sqldialect rule to gin's validator
func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("sqldialect", isKnownDialect)
		}
	})
}

func isKnownDialect(fl validator.FieldLevel) bool {
	return dialect.Parse(fl.Field().String()).IsKnown()
}
