/*
Package errdefs classifies engine errors and maps each class to its
HTTP rendering.

Domain code returns classified errors; the API layer renders any error
it receives by asking this package for the status, wire name, and
optional detail code. Nothing else in the engine imports net/http
semantics for error handling.

# Error Classes

	constructor               status  wire name                      code
	Validation                400     ValidationError
	NotFound                  404     NotFoundError
	Conflict                  409     ConflictError
	Deployment / Deploymentf  500     DeploymentError
	NoActiveDeployment        400     NoActiveDeploymentError        NO_ACTIVE_DEPLOYMENT
	NoPreviousDeployment      400     NoPreviousDeploymentError      NO_PREVIOUS_DEPLOYMENT
	RollbackValidationFailed  500     RollbackValidationFailedError  ROLLBACK_VALIDATION_FAILED

Unclassified errors render as InternalError with status 500 and no
code, so a forgotten classification degrades to a generic failure
instead of leaking internals.

# Matching

Each class has an IsX predicate built on errors.As, so classification
survives %w wrapping:

	if errdefs.IsConflict(err) {
		// another deploy already holds the project
	}

Deployment errors wrap their cause; errors.Unwrap reaches the
underlying exec or daemon failure for logging.

# Wire Helpers

HTTPStatus, WireName, and DetailCode feed the API's error envelope:

	{"error": "ConflictError", "message": "Deployment already in progress"}
	{"error": "NoPreviousDeploymentError", "message": "...", "code": "NO_PREVIOUS_DEPLOYMENT"}
*/
package errdefs
