package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "kbpulse/internal/errors"
)

type seriesQuery struct {
	Region    string `query:"region" validate:"required,label,max=64"`
	Primary   string `query:"primary" validate:"omitempty,label,max=32"`
	Secondary string `query:"secondary" validate:"omitempty,label,max=32,nefield=Primary"`
}

func TestValidator_ValidateStruct(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name       string
		query      seriesQuery
		wantFields []string
	}{
		{name: "valid", query: seriesQuery{Region: "서울"}},
		{name: "valid with categories", query: seriesQuery{Region: "강남구", Primary: "sale", Secondary: "lease"}},
		{name: "missing region", query: seriesQuery{}, wantFields: []string{"region"}},
		{name: "blank region", query: seriesQuery{Region: "   "}, wantFields: []string{"region"}},
		{name: "control character", query: seriesQuery{Region: "서울\x00"}, wantFields: []string{"region"}},
		{name: "same categories", query: seriesQuery{Region: "서울", Primary: "sale", Secondary: "sale"}, wantFields: []string{"secondary"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.query)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)

			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			fields := make([]string, 0, len(details.Errors))
			for _, fe := range details.Errors {
				fields = append(fields, fe.Field)
				assert.NotEmpty(t, fe.Message)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}
