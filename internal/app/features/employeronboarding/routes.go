package employeronboarding

import (
	"github.com/dalemusser/crewpay/internal/app/system/auth"
	"github.com/dalemusser/crewpay/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the onboarding API under the base path
// (typically "/onboarding/employer" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleEmployer))

		pr.Get("/checklist", h.ServeChecklist)
		pr.Post("/org-profile", h.HandleOrgProfile)

		pr.Post("/entity-document", h.HandleUploadDocument)
		pr.Delete("/entity-document/{docType}", h.HandleDeleteDocument)

		pr.Post("/submit-entity", h.HandleSubmit)
	})

	return r
}
