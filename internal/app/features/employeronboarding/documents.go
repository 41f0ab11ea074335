package employeronboarding

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dalemusser/crewpay/internal/app/onboarding"
	"github.com/dalemusser/crewpay/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

type uploadRequest struct {
	DocType    string `json:"docType"`
	FileBase64 string `json:"fileBase64"`
	FileName   string `json:"fileName"`
	FileType   string `json:"fileType"`
}

// decodeFile accepts plain base64 or a data URL ("data:application/pdf;base64,...").
func decodeFile(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	return base64.StdEncoding.DecodeString(s)
}

// HandleUploadDocument handles POST /entity-document.
func (h *Handler) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	userID, orgID, ok := caller(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "request body must be JSON {docType, fileBase64, fileName, fileType} within the size limit")
		return
	}
	data, err := decodeFile(req.FileBase64)
	if err != nil {
		badRequest(w, "fileBase64 is not valid base64")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	doc, err := h.Svc.UploadDocument(ctx, orgID, userID, onboarding.UploadInput{
		DocumentType: req.DocType,
		Data:         data,
		FileName:     req.FileName,
		ContentType:  req.FileType,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.Audit.DocumentUploaded(ctx, r, userID, orgID, string(doc.DocumentType), doc.FileName, doc.FileSizeBytes)
	writeJSON(w, http.StatusOK, doc)
}

// HandleDeleteDocument handles DELETE /entity-document/{docType}.
func (h *Handler) HandleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID, orgID, ok := caller(w, r)
	if !ok {
		return
	}
	docType := chi.URLParam(r, "docType")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Svc.DeleteDocument(ctx, orgID, userID, docType); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.Audit.DocumentDeleted(ctx, r, userID, orgID, strings.ToLower(docType))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
