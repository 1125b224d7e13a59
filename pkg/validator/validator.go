package validator

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var (
	validate      = validator.New()
	orderNumberRe = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
)

const MaxOrderNumberLength = 50

func init() {
	// Register custom validation for UUID
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})
	validate.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return IsCPF(fl.Field().String())
	})
	validate.RegisterValidation("cnpj", func(fl validator.FieldLevel) bool {
		return IsCNPJ(fl.Field().String())
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "", Tag: "invalid", Value: err.Error()}}
		}
		for _, err := range validationErrs {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// FirstError renders the first failure the way handlers report it, or "" when errs is empty.
func FirstError(errs []*ErrorResponse) string {
	if len(errs) == 0 {
		return ""
	}
	return fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", errs[0].FailedField, errs[0].Tag)
}

// IsOrderNumber reports whether s is a non-empty run of letters, digits and hyphens of at most 50 chars.
func IsOrderNumber(s string) bool {
	return s != "" && len(s) <= MaxOrderNumberLength && orderNumberRe.MatchString(s)
}

func digitsOf(s string) []int {
	out := make([]int, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, int(r-'0'))
		}
	}
	return out
}

func allSame(d []int) bool {
	for _, v := range d[1:] {
		if v != d[0] {
			return false
		}
	}
	return true
}

// IsCPF validates a Brazilian individual taxpayer number, with or without punctuation.
func IsCPF(s string) bool {
	d := digitsOf(s)
	if len(d) != 11 || allSame(d) {
		return false
	}
	for pos := 9; pos <= 10; pos++ {
		sum := 0
		for i := 0; i < pos; i++ {
			sum += d[i] * (pos + 1 - i)
		}
		check := (sum * 10) % 11 % 10
		if check != d[pos] {
			return false
		}
	}
	return true
}

// IsCNPJ validates a Brazilian company registration number, with or without punctuation.
func IsCNPJ(s string) bool {
	d := digitsOf(s)
	if len(d) != 14 || allSame(d) {
		return false
	}
	weights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	for pos := 12; pos <= 13; pos++ {
		w := weights[13-pos:]
		sum := 0
		for i := 0; i < pos; i++ {
			sum += d[i] * w[i]
		}
		check := 0
		if r := sum % 11; r >= 2 {
			check = 11 - r
		}
		if check != d[pos] {
			return false
		}
	}
	return true
}
