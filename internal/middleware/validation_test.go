package middleware

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "capboard/internal/errors"
)

type listQuery struct {
	Top    int    `query:"top" validate:"gte=1,lte=100"`
	Period string `query:"period" validate:"period"`
	Format string `json:"format" validate:"omitempty,oneof=json csv"`
}

func TestValidatorValidateStruct(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name       string
		input      listQuery
		wantFields []string
	}{
		{name: "valid", input: listQuery{Top: 10, Period: "3y"}},
		{name: "empty period means all", input: listQuery{Top: 1}},
		{name: "top too large", input: listQuery{Top: 101}, wantFields: []string{"top"}},
		{
			name:       "multiple failures",
			input:      listQuery{Top: 0, Period: "5y", Format: "xml"},
			wantFields: []string{"top", "period", "format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.input)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			fields := make([]string, 0, len(details.Errors))
			for _, e := range details.Errors {
				fields = append(fields, e.Field)
				assert.NotEmpty(t, e.Message)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestFormatValidationMessages(t *testing.T) {
	err := NewValidator().ValidateStruct(listQuery{Top: 500, Period: "x"})
	var apiErr *apierrors.APIError
	require.True(t, errors.As(err, &apiErr))

	details := apiErr.Details.(apierrors.ValidationErrors)
	require.Len(t, details.Errors, 2)
	assert.Equal(t, "top must be less than or equal to 100", details.Errors[0].Message)
	assert.Equal(t, "period must be one of: 1y, 2y, 3y, all", details.Errors[1].Message)
}
