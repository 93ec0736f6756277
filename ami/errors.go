/*
Copyright © 2026 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

package ami

import (
	"errors"
	"fmt"
	"time"

	"github.com/aws/smithy-go"
)

// ValidationError indicates a malformed or contradictory request.
// It is always detected before any remote call is issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid request: %s", e.Message)
}

// validationErrorf builds a ValidationError for the given field.
func validationErrorf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// RemoteAPIError wraps a rejection from the EC2 API, preserving the
// provider error code and message. ResourceID carries the identifier of
// an already-created resource when one is known at the point of failure,
// so callers can reconcile manually.
type RemoteAPIError struct {
	Op         string // the controller step that failed, e.g. "create image"
	Code       string // provider error code, e.g. "InvalidAMIID.NotFound"
	Message    string
	ResourceID string
	Cause      error
}

func (e *RemoteAPIError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Op)
	if e.Code != "" {
		msg = fmt.Sprintf("%s => %s: %s", msg, e.Code, e.Message)
	} else if e.Message != "" {
		msg = fmt.Sprintf("%s => %s", msg, e.Message)
	}
	if e.ResourceID != "" {
		msg = fmt.Sprintf("%s (resource: %s)", msg, e.ResourceID)
	}
	return msg
}

func (e *RemoteAPIError) Unwrap() error {
	return e.Cause
}

// wrapRemote converts an SDK error into a RemoteAPIError, pulling the
// provider code and message out of the smithy error chain when present.
func wrapRemote(op string, err error) *RemoteAPIError {
	remote := &RemoteAPIError{Op: op, Cause: err}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		remote.Code = apiErr.ErrorCode()
		remote.Message = apiErr.ErrorMessage()
	} else if err != nil {
		remote.Message = err.Error()
	}

	return remote
}

// ConvergenceTimeoutError indicates a polling loop exceeded its bound
// without observing the expected terminal state.
type ConvergenceTimeoutError struct {
	ImageID string
	Target  string // the state that was waited for, e.g. "available"
	Waited  time.Duration
}

func (e *ConvergenceTimeoutError) Error() string {
	return fmt.Sprintf(
		"timed out after %s waiting for image %s to become %s; raising --wait-timeout or disabling --wait may help",
		e.Waited, e.ImageID, e.Target,
	)
}

// errorCode returns the provider error code from a remote failure, or ""
// if the error carries none.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// Provider error codes the controller treats specially.
const (
	errCodeImageNotFound    = "InvalidAMIID.NotFound"
	errCodeImageUnavailable = "InvalidAMIID.Unavailable"
	errCodeSnapshotNotFound = "InvalidSnapshot.NotFound"
)

// isImageNotFound reports whether err is the registry's "no such image"
// rejection.
func isImageNotFound(err error) bool {
	return errorCode(err) == errCodeImageNotFound
}

// isImageUnavailable reports whether err is the eventual-consistency
// variant of not-found, returned while a just-created image is not yet
// visible or after an image has been deregistered.
func isImageUnavailable(err error) bool {
	return errorCode(err) == errCodeImageUnavailable
}

// isSnapshotNotFound reports whether err is the registry's "no such
// snapshot" rejection.
func isSnapshotNotFound(err error) bool {
	return errorCode(err) == errCodeSnapshotNotFound
}
