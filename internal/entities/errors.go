// Package entities contains core business entities and errors.
package entities

import "errors"

var (
	// ErrInvalidArgument signals failed input validation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken signals a registration conflict on email.
	ErrEmailTaken = errors.New("email taken")
	// ErrInvalidCredentials is returned on login with unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserInactive signals an operation attempted by or on a deactivated account.
	ErrUserInactive = errors.New("user inactive")
	// ErrForbidden signals the caller is not allowed to perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrTokenInvalid signals a malformed, expired or unknown token.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenRevoked signals a refresh token that was rotated or explicitly revoked.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrTaskNotFound signals a missing task.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskDone signals a modification attempt on a completed task.
	ErrTaskDone = errors.New("task done")
	// ErrJobNotFound signals a missing export job.
	ErrJobNotFound = errors.New("export job not found")
	// ErrJobNotRetryable signals a retry attempt on a job that is not FAILED
	// or has exhausted its attempts.
	ErrJobNotRetryable = errors.New("export job not retryable")
)
