package utils

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// Command structs carry gin binding tags, reuse them outside gin
	validate.SetTagName("binding")
	registerCustomValidations()
}

// ValidateStruct validates a struct using validation tags
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	return nil
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(uuid string) bool {
	r := regexp.MustCompile("^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$")
	return r.MatchString(uuid)
}

// classNamePattern matches fully qualified class names like com.example.Service
var classNamePattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

// IsValidClassName checks if a string is a valid fully qualified class name
func IsValidClassName(name string) bool {
	return classNamePattern.MatchString(name)
}

// ValidateAggregateID validates an aggregate ID
func ValidateAggregateID(id string) error {
	if id == "" {
		return fmt.Errorf("aggregate ID cannot be empty")
	}
	return nil
}

// registerCustomValidations registers custom validation functions
func registerCustomValidations() {
	validate.RegisterValidation("aggregate_id", func(fl validator.FieldLevel) bool {
		return ValidateAggregateID(fl.Field().String()) == nil
	})

	validate.RegisterValidation("class_name", func(fl validator.FieldLevel) bool {
		return IsValidClassName(fl.Field().String())
	})
}
