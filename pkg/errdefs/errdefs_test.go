package errdefs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidation(t *testing.T) {
	err := fmt.Errorf("creating project: %w", Validation("name %q is invalid", "My App"))
	assert.True(t, IsValidation(err))

	assert.False(t, IsValidation(errors.New("another error")))
}

func TestIsNotFound(t *testing.T) {
	err := fmt.Errorf("loading: %w", NotFound("project", "p1"))
	assert.True(t, IsNotFound(err))

	assert.False(t, IsNotFound(Validation("nope")))
}

func TestIsConflict(t *testing.T) {
	err := Conflict("Deployment already in progress")
	assert.True(t, IsConflict(err))
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
}

func TestDeploymentWrapsCause(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Deployment("image build failed", cause)

	assert.True(t, IsDeployment(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "image build failed")
	assert.Contains(t, err.Error(), "exit status 1")
}

func TestRollbackErrors(t *testing.T) {
	assert.True(t, IsNoActiveDeployment(NoActiveDeployment("p1")))
	assert.True(t, IsNoPreviousDeployment(NoPreviousDeployment("p1")))
	assert.True(t, IsRollbackValidationFailed(RollbackValidationFailed("health check failed")))

	assert.Equal(t, http.StatusBadRequest, HTTPStatus(NoActiveDeployment("p1")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(NoPreviousDeployment("p1")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(RollbackValidationFailed("x")))
}

func TestHTTPStatusUnclassified(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
	assert.Equal(t, "InternalError", WireName(errors.New("boom")))
}

func TestWireNames(t *testing.T) {
	tests := []struct {
		err  error
		name string
		code string
	}{
		{Validation("bad"), "ValidationError", ""},
		{NotFound("project", "x"), "NotFoundError", ""},
		{Conflict("busy"), "ConflictError", ""},
		{Deploymentf("failed"), "DeploymentError", ""},
		{NoActiveDeployment("p"), "NoActiveDeploymentError", "NO_ACTIVE_DEPLOYMENT"},
		{NoPreviousDeployment("p"), "NoPreviousDeploymentError", "NO_PREVIOUS_DEPLOYMENT"},
		{RollbackValidationFailed("x"), "RollbackValidationFailedError", "ROLLBACK_VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.name, WireName(tt.err))
		assert.Equal(t, tt.code, DetailCode(tt.err))
	}
}
