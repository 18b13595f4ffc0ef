package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClonesMatchTheirSentinel(t *testing.T) {
	err := fmt.Errorf("load plan: %w", Clone(ErrNotFound, "student plan not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, "student plan not found", FromError(err).Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("connection reset"))

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, 500, appErr.Status)
	assert.EqualError(t, appErr, "internal server error: connection reset")
}

func TestFromValidationListsFields(t *testing.T) {
	type payload struct {
		Name  string `validate:"required"`
		Scope string `validate:"oneof=schedule all"`
	}
	err := validator.New().Struct(payload{Scope: "everything"})
	require.Error(t, err)

	appErr := FromValidation(err, "invalid payload")

	assert.Equal(t, ErrValidation.Code, appErr.Code)
	assert.Equal(t, map[string]string{"Name": "required", "Scope": "oneof=schedule all"}, appErr.Details)
}

func TestWithDetailsLeavesSentinelUntouched(t *testing.T) {
	appErr := WithDetails(ErrValidation, map[string]string{"day": "unknown"})

	assert.Equal(t, "unknown", appErr.Details["day"])
	assert.Nil(t, ErrValidation.Details)
}
