package domain

import "fmt"

// Code is a machine-readable error code returned to API callers.
type Code string

const (
	// CodeBadRequest: request body could not be parsed.
	CodeBadRequest Code = "BAD_REQUEST"
	// CodeMissingFields: a required request field is absent.
	CodeMissingFields Code = "MISSING_FIELDS"
	// CodeOriginNotFound: phone lookup matched no resident, or the resident
	// has no stored coordinates.
	CodeOriginNotFound Code = "ORIGIN_NOT_FOUND"
	// CodeAlertNotFound: no alert with that identifier, or the alert is not
	// active.
	CodeAlertNotFound Code = "ALERT_NOT_FOUND"
	// CodeNoSafeShelters: every cataloged shelter tested inside the hazard
	// polygon.
	CodeNoSafeShelters Code = "NO_SAFE_SHELTERS"
	// CodeInternal: a storage collaborator failed mid-request.
	CodeInternal Code = "INTERNAL"
)

// RequestError is a terminal routing failure with a code from the taxonomy
// above. Notification failures are deliberately not represented here: they
// are soft errors attached to an otherwise successful response.
type RequestError struct {
	Code Code
	Hint string
}

func (e *RequestError) Error() string {
	if e.Hint == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Hint)
}
