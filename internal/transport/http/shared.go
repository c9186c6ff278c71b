// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// domain services and encode; business rules never live here.
package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "hostelcore/pkg/domain-errors"
)

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeNotFound:           http.StatusNotFound,
	dErrors.CodeBadRequest:         http.StatusBadRequest,
	dErrors.CodeInvalidDate:        http.StatusBadRequest,
	dErrors.CodeConflict:           http.StatusConflict,
	dErrors.CodeInvalidTransition:  http.StatusConflict,
	dErrors.CodeNoCapacity:         http.StatusConflict,
	dErrors.CodeAlreadyResident:    http.StatusConflict,
	dErrors.CodeAlreadyCompleted:   http.StatusConflict,
	dErrors.CodeGenderMismatch:     http.StatusConflict,
	dErrors.CodeContention:         http.StatusConflict,
	dErrors.CodeUnauthorized:       http.StatusUnauthorized,
	dErrors.CodeTimeout:            http.StatusGatewayTimeout,
	dErrors.CodeInvariantViolation: http.StatusInternalServerError,
	dErrors.CodeInternal:           http.StatusInternalServerError,
}

type errorEnvelope struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// writeError translates domain errors to the JSON error envelope. Internal
// detail never leaks; the code is the contract.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	description := ""
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) && code != dErrors.CodeInternal && code != dErrors.CodeInvariantViolation {
		description = domainErr.Message
	}
	writeJSON(w, status, errorEnvelope{Error: string(code), Description: description})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decode reads a JSON request body into dst.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
