package onboarding

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	entitydocstore "github.com/dalemusser/crewpay/internal/app/store/entitydocs"
	organizationstore "github.com/dalemusser/crewpay/internal/app/store/organizations"
	"github.com/dalemusser/crewpay/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// AllowedContentTypes are the file types accepted for entity documents.
var AllowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

// UploadInput is one entity document as received from the client.
type UploadInput struct {
	DocumentType string
	Data         []byte
	FileName     string
	ContentType  string
}

// Verification owns the entity-document lifecycle and submission.
type Verification struct {
	Orgs     OrgStore
	Docs     DocStore
	Blobs    BlobStore
	Notifier ReviewNotifier
	Log      *zap.Logger
	MaxBytes int64
	Now      func() time.Time
}

// assertMutable is the single guard for document mutations.
func assertMutable(status models.EntityStatus) error {
	if status == models.EntityPendingReview {
		return ErrUnderReview
	}
	return nil
}

// Upload stores the file and makes it the live document of its type.
func (v *Verification) Upload(ctx context.Context, org models.Organization, callerID primitive.ObjectID, in UploadInput) (models.EntityDocument, error) {
	if err := assertMutable(org.Status()); err != nil {
		return models.EntityDocument{}, err
	}

	docType, contentType, name, err := v.validateUpload(in)
	if err != nil {
		return models.EntityDocument{}, err
	}

	now := v.Now().UTC()
	key := fmt.Sprintf("entity-documents/%s/%s/%d-%s", org.ID.Hex(), docType, now.UnixMilli(), sanitizeFilename(name))

	url, err := v.Blobs.Put(ctx, key, in.Data, contentType)
	if err != nil {
		return models.EntityDocument{}, fmt.Errorf("store file: %w", err)
	}

	doc, err := v.Docs.Upsert(ctx, models.EntityDocument{
		OrganizationID: org.ID,
		DocumentType:   docType,
		FileName:       name,
		FileURL:        url,
		FileType:       contentType,
		FileSizeBytes:  int64(len(in.Data)),
		StoragePath:    key,
		UploadedBy:     callerID,
	})
	if err != nil {
		// The row still points at the previous file; drop the orphan.
		if derr := v.Blobs.Delete(ctx, key); derr != nil {
			v.Log.Warn("failed to remove orphaned upload",
				zap.String("organization_id", org.ID.Hex()),
				zap.String("storage_path", key),
				zap.Error(derr))
		}
		if errors.Is(err, entitydocstore.ErrConcurrentUpload) {
			return models.EntityDocument{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return models.EntityDocument{}, fmt.Errorf("save document: %w", err)
	}

	if st := org.Status(); st == models.EntityNotStarted || st == models.EntityRejected {
		// The document is saved either way; the checklist reads not_started
		// and rejected the same as active.
		if _, err := v.Orgs.ActivateEntity(ctx, org.ID, now); err != nil {
			v.Log.Warn("failed to mark entity verification active",
				zap.String("organization_id", org.ID.Hex()),
				zap.Error(err))
		}
	}
	return doc, nil
}

func (v *Verification) validateUpload(in UploadInput) (models.DocumentType, string, string, error) {
	docType, ok := models.ParseDocumentType(in.DocumentType)
	if !ok {
		return "", "", "", invalid("unknown document type %q", in.DocumentType)
	}

	name := strings.TrimSpace(path.Base(strings.ReplaceAll(in.FileName, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "", "", "", invalid("fileName is required")
	}

	if len(in.Data) == 0 {
		return "", "", "", invalid("file is empty")
	}
	if v.MaxBytes > 0 && int64(len(in.Data)) > v.MaxBytes {
		return "", "", "", invalid("file is larger than %d bytes", v.MaxBytes)
	}

	declared, _, err := mime.ParseMediaType(in.ContentType)
	if err != nil || !AllowedContentTypes[declared] {
		return "", "", "", invalid("fileType must be one of application/pdf, image/png, image/jpeg")
	}
	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(in.Data))
	if sniffed != declared {
		return "", "", "", invalid("file content does not match fileType %s", declared)
	}

	return docType, declared, name, nil
}

// Delete removes the live document of docType. Removing the stored file is
// best-effort; removing the record is authoritative.
func (v *Verification) Delete(ctx context.Context, org models.Organization, callerID primitive.ObjectID, rawType string) error {
	if err := assertMutable(org.Status()); err != nil {
		return err
	}
	docType, ok := models.ParseDocumentType(rawType)
	if !ok {
		return invalid("unknown document type %q", rawType)
	}

	doc, err := v.Docs.GetByType(ctx, org.ID, docType)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%w: no %s document uploaded", ErrNotFound, docType)
		}
		return fmt.Errorf("load document: %w", err)
	}

	if err := v.Blobs.Delete(ctx, doc.StoragePath); err != nil {
		v.Log.Warn("failed to delete entity document file",
			zap.String("organization_id", org.ID.Hex()),
			zap.String("doc_type", string(docType)),
			zap.String("storage_path", doc.StoragePath),
			zap.String("caller_id", callerID.Hex()),
			zap.Error(err))
	}

	n, err := v.Docs.Delete(ctx, org.ID, docType)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: no %s document uploaded", ErrNotFound, docType)
	}
	return nil
}

// Submit moves the organization to pending_review once every required
// document is present. Only the owner may submit.
func (v *Verification) Submit(ctx context.Context, org models.Organization, callerID primitive.ObjectID) (models.Organization, error) {
	if callerID != org.OwnerID {
		return models.Organization{}, fmt.Errorf("%w: only the organization owner can submit for review", ErrForbidden)
	}
	if org.Status() == models.EntityApproved {
		return models.Organization{}, fmt.Errorf("%w: entity verification is already approved", ErrConflict)
	}

	docs, err := v.Docs.ListByOrg(ctx, org.ID)
	if err != nil {
		return models.Organization{}, fmt.Errorf("load documents: %w", err)
	}
	present, missing := requiredCoverage(docs)
	if len(missing) > 0 {
		return models.Organization{}, &MissingDocumentsError{Missing: missing}
	}

	updated, err := v.Orgs.MarkSubmitted(ctx, org.ID, callerID, v.Now().UTC())
	if err != nil {
		if errors.Is(err, organizationstore.ErrNotOwned) {
			return models.Organization{}, fmt.Errorf("%w: only the organization owner can submit for review", ErrForbidden)
		}
		return models.Organization{}, fmt.Errorf("submit for review: %w", err)
	}

	if err := v.Notifier.EntitySubmitted(ctx, updated, present); err != nil {
		v.Log.Warn("failed to publish review request",
			zap.String("organization_id", org.ID.Hex()),
			zap.Error(err))
	}
	return updated, nil
}

// requiredCoverage splits the required types into present and missing, both
// in canonical order.
func requiredCoverage(docs []models.EntityDocument) (present, missing []models.DocumentType) {
	have := make(map[models.DocumentType]bool, len(docs))
	for _, d := range docs {
		have[d.DocumentType] = true
	}
	for _, t := range models.RequiredDocumentTypes {
		if have[t] {
			present = append(present, t)
		} else {
			missing = append(missing, t)
		}
	}
	return present, missing
}

// sanitizeFilename keeps a conservative character set for storage keys.
func sanitizeFilename(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '.' && len(out) > 0 && out[len(out)-1] == '.' {
			// Storage keys may not contain "..".
			continue
		}
		if isAllowedFilenameChar(c) {
			out = append(out, c)
		} else {
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "file"
	}
	if len(out) > 100 {
		ext := path.Ext(string(out))
		if len(ext) > 0 && len(ext) < 10 {
			stem := strings.TrimRight(string(out[:100-len(ext)]), ".")
			out = append([]byte(stem), ext...)
		} else {
			out = out[:100]
		}
	}
	return string(out)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
