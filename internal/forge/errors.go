package forge

import (
	"errors"
	"fmt"
)

// AuthFailure means the credential is missing or was rejected (401, or a 403
// that is not a rate-limit response). The session must be re-authenticated.
type AuthFailure struct {
	Status int // 0 when no credential was available
	Reason string
}

func (e *AuthFailure) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("authentication failed: %s", e.Reason)
	}
	return fmt.Sprintf("authentication failed: %d %s", e.Status, e.Reason)
}

// NotFound means the target resource does not exist. For Pages lookups this
// is the normal "not configured" answer.
type NotFound struct {
	Path string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("not found: %s", e.Path)
}

// RemoteFailure is any other unsuccessful response. Status is 0 when the
// request never produced a response.
type RemoteFailure struct {
	Method string
	Path   string
	Status int
	Reason string
}

func (e *RemoteFailure) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Reason)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Reason)
}

func IsAuthFailure(err error) bool {
	var target *AuthFailure
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFound
	return errors.As(err, &target)
}
