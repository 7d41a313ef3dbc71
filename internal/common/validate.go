package common

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ValidateStruct runs struct-tag validation against any boundary input
// type (ProvenanceSpec, DocumentSpec, entity-creation specs, ...) and
// maps a failure to the VALIDATION error category.
func ValidateStruct(s interface{}) error {
	if err := getValidator().Struct(s); err != nil {
		return Validation(err.Error())
	}
	return nil
}
