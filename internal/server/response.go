package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/depscan/pkg/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ParseFailureDetails locates a parse failure in the request body.
type ParseFailureDetails struct {
	Format string `json:"format"`
	Line   int    `json:"line,omitempty"`
	Rule   string `json:"rule,omitempty"`
	Reason string `json:"reason"`
}

// MalformedInputDetails locates a decoding failure in the request body.
type MalformedInputDetails struct {
	Offset int    `json:"offset"`
	Reason string `json:"reason"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errors.Code, msg string, details any) {
	writeJSON(w, status, ErrorResponse{Error: string(code), Message: msg, Details: details})
}

// writeErr maps err to a status code and writes it.
func writeErr(w http.ResponseWriter, err error) {
	var pf *errors.ParseFailure
	if stderrors.As(err, &pf) {
		writeError(w, http.StatusUnprocessableEntity, errors.ErrCodeParseFailure, pf.Error(),
			ParseFailureDetails{Format: pf.Format, Line: pf.Line, Rule: pf.Rule, Reason: pf.Reason})
		return
	}
	var mf *errors.MalformedInputFailure
	if stderrors.As(err, &mf) {
		writeError(w, http.StatusUnprocessableEntity, errors.ErrCodeMalformedInput, mf.Error(),
			MalformedInputDetails{Offset: mf.Offset, Reason: mf.Reason})
		return
	}
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, errors.ErrCodeInvalidInput,
			"request body too large", map[string]int64{"limit": tooLarge.Limit})
		return
	}

	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidFormat, errors.ErrCodeSnapshotNotFound, errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidEcosystem, errors.ErrCodeInvalidPackage,
		errors.ErrCodeInvalidPath, errors.ErrCodeInvalidManifest, errors.ErrCodeInvalidConfig:
		status = http.StatusBadRequest
	case "":
		code = errors.ErrCodeInternal
	}
	writeError(w, status, code, errors.UserMessage(err), nil)
}
