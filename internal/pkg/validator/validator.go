package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperror "gocatalog/internal/errors"
)

// ErrorResponse descreve uma regra violada em um campo de entrada.
type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

func (e ErrorResponse) String() string {
	if e.Value != "" {
		return fmt.Sprintf("campo '%s' falhou na regra '%s=%s'", e.FailedField, e.Tag, e.Value)
	}
	return fmt.Sprintf("campo '%s' falhou na regra '%s'", e.FailedField, e.Tag)
}

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	validate.RegisterValidation("uuid_string", func(fl validator.FieldLevel) bool {
		_, err := uuid.Parse(fl.Field().String())
		return err == nil
	})
}

// ValidateStruct devolve as regras violadas, vazio quando data é válido.
func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []*ErrorResponse{{FailedField: "", Tag: err.Error()}}
	}
	for _, fe := range verrs {
		errors = append(errors, &ErrorResponse{
			FailedField: trimRoot(fe.Namespace()),
			Tag:         fe.Tag(),
			Value:       fe.Param(),
		})
	}
	return errors
}

// Check valida data e converte as falhas em ValidationError.
func Check(msg string, data interface{}) error {
	errs := ValidateStruct(data)
	if len(errs) == 0 {
		return nil
	}
	violations := make([]string, len(errs))
	for i, e := range errs {
		violations[i] = e.String()
	}
	return apperror.NewValidationError(msg, violations...)
}

func trimRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
