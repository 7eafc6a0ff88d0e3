package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	type payload struct {
		Name  string `json:"name" validate:"required"`
		Limit int    `json:"limit,omitempty" validate:"max=100"`
	}

	err := ValidateStruct(&payload{Limit: 500})
	require.Error(t, err)

	ve, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, ve, 2)

	byField := make(map[string]ValidationError, len(ve))
	for _, failure := range ve {
		byField[failure.Field] = failure
	}
	require.Equal(t, "required", byField["name"].Tag)
	require.Equal(t, "max", byField["limit"].Tag)
	require.Equal(t, "100", byField["limit"].Param)

	require.NoError(t, ValidateStruct(&payload{Name: "ok", Limit: 10}))
}

func TestRegisterValidationAddsCustomRule(t *testing.T) {
	require.NoError(t, RegisterValidation("is_even", func(fl validator.FieldLevel) bool {
		return fl.Field().Int()%2 == 0
	}))

	type payload struct {
		Value int `json:"value" validate:"is_even"`
	}

	require.NoError(t, ValidateStruct(&payload{Value: 2}))
	require.Error(t, ValidateStruct(&payload{Value: 3}))
}

func TestValidationErrorsMessage(t *testing.T) {
	require.Equal(t, "validation failed", ValidationErrors{}.Error())

	ve := ValidationErrors{
		{Field: "title", Tag: "required"},
		{Field: "limit", Tag: "max", Param: "100"},
	}
	require.Equal(t, "title failed on required; limit failed on max=100", ve.Error())
}
