package employeronboarding

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/crewpay/internal/app/onboarding"
	"github.com/dalemusser/crewpay/internal/domain/models"
	"go.uber.org/zap"
)

// Error codes returned in the "code" field.
const (
	codeValidation = "validation"
	codeConflict   = "conflict"
	codeNotFound   = "not_found"
	codeForbidden  = "forbidden"
	codeInternal   = "internal"
)

type errorResponse struct {
	Error   string                `json:"error"`
	Code    string                `json:"code"`
	Missing []models.DocumentType `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service error onto the API's error body. Every failure is
// a 400; clients branch on "code".
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: err.Error()}

	var missing *onboarding.MissingDocumentsError
	switch {
	case errors.As(err, &missing):
		resp.Code = codeValidation
		resp.Missing = missing.Missing
	case errors.Is(err, onboarding.ErrValidation):
		resp.Code = codeValidation
	case errors.Is(err, onboarding.ErrConflict):
		resp.Code = codeConflict
	case errors.Is(err, onboarding.ErrNotFound):
		resp.Code = codeNotFound
	case errors.Is(err, onboarding.ErrForbidden):
		resp.Code = codeForbidden
	default:
		h.Log.Error("onboarding request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		resp.Code = codeInternal
		resp.Error = "something went wrong; please try again"
	}

	if resp.Code != codeInternal {
		resp.Error = publicMessage(err)
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

// publicMessage drops the sentinel prefix ("invalid request: ") so the
// employer sees only the detail.
func publicMessage(err error) string {
	msg := err.Error()
	for _, s := range []error{onboarding.ErrValidation, onboarding.ErrConflict, onboarding.ErrNotFound, onboarding.ErrForbidden} {
		if p := s.Error() + ": "; strings.HasPrefix(msg, p) {
			return strings.TrimPrefix(msg, p)
		}
	}
	return msg
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Code: codeValidation})
}
