package handlers

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/youzarsiph/the-certain-news/internal/models"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by the request models.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		err = v.RegisterValidation("reaction", func(fl validator.FieldLevel) bool {
			return slices.Contains(models.Reactions, fl.Field().String())
		})
	})
	return err
}
