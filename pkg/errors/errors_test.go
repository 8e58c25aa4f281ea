package errors

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
}

func TestCloneMatchesTemplate(t *testing.T) {
	clone := Clone(ErrNotFound, "snag list not found")
	assert.Equal(t, "snag list not found", clone.Message)
	assert.ErrorIs(t, clone, ErrNotFound)
	assert.NotErrorIs(t, clone, ErrForbidden)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestValidationCollectsFieldDetails(t *testing.T) {
	type payload struct {
		Title    string `validate:"required"`
		Priority string `validate:"omitempty,oneof=LOW HIGH"`
	}
	err := validator.New().Struct(payload{Priority: "URGENT"})
	require.Error(t, err)

	appErr := Validation(err, "invalid payload")
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	require.Len(t, appErr.Details, 2)
	assert.Equal(t, FieldError{Field: "title", Rule: "required", Message: "title is required"}, appErr.Details[0])
	assert.Equal(t, "priority", appErr.Details[1].Field)
	assert.Equal(t, "oneof", appErr.Details[1].Rule)
}
