package employeronboarding

import (
	"context"
	"net/http"

	"github.com/dalemusser/crewpay/internal/app/system/timeouts"
)

// ServeChecklist handles GET /checklist.
//
//	{ "allComplete": false, "steps": [ {key,title,subtitle,status,data}, ... ] }
func (h *Handler) ServeChecklist(w http.ResponseWriter, r *http.Request) {
	_, orgID, ok := caller(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Svc.Checklist(ctx, orgID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
