package employeronboarding

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/crewpay/internal/app/system/timeouts"
	"github.com/dalemusser/crewpay/internal/domain/models"
)

type profileRequest struct {
	Description         *string  `json:"description"`
	EmployeeTypesNeeded []string `json:"employeeTypesNeeded"`
	Website             *string  `json:"website"`
	LinkedinURL         *string  `json:"linkedinUrl"`
}

// HandleOrgProfile handles POST /org-profile. An empty body is a skip.
func (h *Handler) HandleOrgProfile(w http.ResponseWriter, r *http.Request) {
	userID, orgID, ok := caller(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	var req profileRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "request body must be a JSON object")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	org, err := h.Svc.CompleteOrgProfile(ctx, orgID, userID, models.ProfileUpdate{
		Description:         req.Description,
		Website:             req.Website,
		LinkedinURL:         req.LinkedinURL,
		EmployeeTypesNeeded: req.EmployeeTypesNeeded,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.Audit.ProfileCompleted(ctx, r, userID, orgID)
	writeJSON(w, http.StatusOK, org)
}
