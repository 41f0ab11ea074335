package employeronboarding

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/crewpay/internal/app/onboarding"
	"github.com/dalemusser/crewpay/internal/app/system/timeouts"
)

// HandleSubmit handles POST /submit-entity.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	userID, orgID, ok := caller(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	org, err := h.Svc.SubmitForReview(ctx, orgID, userID)
	if err != nil {
		var missing *onboarding.MissingDocumentsError
		if errors.As(err, &missing) || errors.Is(err, onboarding.ErrForbidden) {
			h.Audit.EntitySubmitBlocked(ctx, r, userID, orgID, publicMessage(err))
		}
		h.writeError(w, r, err)
		return
	}

	h.Audit.EntitySubmitted(ctx, r, userID, orgID)
	writeJSON(w, http.StatusOK, org)
}
