package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeToHTTPStatus(t *testing.T) {
	cases := []struct {
		code   ErrorCode
		status int
	}{
		{CodeInvalidParam, http.StatusBadRequest},
		{CodeAmbiguousInput, http.StatusBadRequest},
		{CodeInvalidState, http.StatusConflict},
		{CodeMissingIdentity, http.StatusPreconditionFailed},
		{CodeSessionNotFound, http.StatusNotFound},
		{CodeLLMProviderError, http.StatusInternalServerError},
		{CodeStreamAborted, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, New(tc.code, "x").HTTPStatus, string(tc.code))
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, CodeDatabaseError, "query failed")

	require.ErrorIs(t, err, cause)
	assert.True(t, IsCode(err, CodeDatabaseError))
	assert.False(t, IsCode(err, CodeCacheError))
	assert.False(t, IsCode(cause, CodeDatabaseError))
}

func TestAsAppErrorWrapsUnknown(t *testing.T) {
	appErr := AsAppError(fmt.Errorf("plain"))
	require.NotNil(t, appErr)
	assert.Equal(t, CodeUnknown, appErr.Code)

	assert.Same(t, ErrAmbiguousInput, AsAppError(ErrAmbiguousInput))
}
