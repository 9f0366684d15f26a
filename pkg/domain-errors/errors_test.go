package derrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to look up credential")

	assert.True(t, errors.Is(err, cause))
	assert.True(t, HasCode(err, CodeInternal))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHasCodeThroughWrapping(t *testing.T) {
	inner := New(CodeUserNotFound, "User not found")
	outer := fmt.Errorf("resolving bootstrap identity: %w", inner)

	assert.True(t, HasCode(outer, CodeUserNotFound))
	assert.False(t, HasCode(outer, CodeUserAlreadyExists))
	assert.False(t, HasCode(errors.New("plain"), CodeUserNotFound))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("disk full")))
	assert.Equal(t, CodeBadRequest, CodeOf(New(CodeBadRequest, "nope")))
}

func TestWithDetailsDoesNotMutateOriginal(t *testing.T) {
	base := New(CodeUserCreationFailed, "User creation failed")
	detailed := base.WithDetails("Passwords must be at least 6 characters.")

	require.Empty(t, base.Details)
	assert.Equal(t, []string{"Passwords must be at least 6 characters."}, detailed.Details)
	assert.Equal(t, detailed.Details, DetailsOf(detailed))
}

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeEmailNotConfirmed, http.StatusBadRequest},
		{CodeUserCreationFailed, http.StatusBadRequest},
		{CodeInvalidLink, http.StatusBadRequest},
		{CodeEmailConfirmationFailed, http.StatusBadRequest},
		{CodePasswordResetFailed, http.StatusBadRequest},
		{CodeBadRequest, http.StatusBadRequest},
		{CodeUserNotFound, http.StatusNotFound},
		{CodeUserAlreadyExists, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
		{Code("unmapped"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			assert.Equal(t, tc.want, ToHTTPStatus(tc.code))
		})
	}
}
