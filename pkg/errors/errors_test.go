package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorNormalises(t *testing.T) {
	assert.Nil(t, FromError(nil))

	plain := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.ErrorIs(t, plain, sql.ErrConnDone)

	wrapped := fmt.Errorf("save: %w", Clone(ErrConflict, "proposal conflicts"))
	assert.Equal(t, ErrConflict.Code, FromError(wrapped).Code)
	assert.True(t, Is(wrapped, ErrConflict))
	assert.False(t, Is(wrapped, ErrNotFound))
	assert.False(t, Is(nil, ErrNotFound))
}

func TestCloneAndDetailsLeavePredefinedUntouched(t *testing.T) {
	conflict := Clone(ErrConflict, "proposal conflicts").WithDetails(map[string]interface{}{"conflicts": []string{"Maths at Mon-p1"}})

	assert.Equal(t, "proposal conflicts", conflict.Message)
	assert.Equal(t, http.StatusConflict, conflict.Status)
	assert.Len(t, conflict.Details["conflicts"], 1)
	assert.Equal(t, "conflict", ErrConflict.Message)
	assert.Nil(t, ErrConflict.Details)
}

func TestValidationListsFieldErrors(t *testing.T) {
	type payload struct {
		DepartmentID string `validate:"required"`
		Quota        int    `validate:"max=12"`
	}
	err := validator.New().Struct(payload{Quota: 13})
	require.Error(t, err)

	out := Validation(err, "invalid generate payload")
	assert.Equal(t, ErrValidation.Code, out.Code)
	assert.Equal(t, http.StatusBadRequest, out.Status)
	assert.Equal(t, map[string]string{"DepartmentID": "required", "Quota": "max"}, out.Details["fields"])

	bind := Validation(fmt.Errorf("unexpected EOF"), "invalid generate payload")
	assert.Nil(t, bind.Details)
	assert.Equal(t, "invalid generate payload: unexpected EOF", bind.Error())
}
