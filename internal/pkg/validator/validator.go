package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

// JewelryCategories lists the category values accepted by the jewelry_category rule.
var JewelryCategories = []string{"necklace", "bracelet", "ring", "earrings"}

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	validate.RegisterValidation("jewelry_category", func(fl validator.FieldLevel) bool {
		category := fl.Field().String()
		for _, c := range JewelryCategories {
			if category == c {
				return true
			}
		}
		return false
	})

	// Image reference: remote URL or inline data URL
	validate.RegisterValidation("image_ref", func(fl validator.FieldLevel) bool {
		ref := fl.Field().String()
		if ref == "" {
			return true
		}
		if strings.HasPrefix(ref, "data:image/") {
			return strings.Contains(ref, ";base64,")
		}
		return validate.Var(ref, "url") == nil
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range validationErrors {
		field := err.Field()
		switch err.Tag() {
		case "required", "required_without":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "jewelry_category":
			errors[field] = "Invalid category. Must be: " + strings.Join(JewelryCategories, ", ")
		case "image_ref":
			errors[field] = "Must be an http(s) URL or a base64 image data URL"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}
