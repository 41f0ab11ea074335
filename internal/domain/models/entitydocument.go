// internal/domain/models/entitydocument.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocumentType names one of the documents required for entity verification.
type DocumentType string

const (
	DocW9                      DocumentType = "w9"
	DocArticlesOfIncorporation DocumentType = "articles_of_incorporation"
	DocBankStatement           DocumentType = "bank_statement"
)

// RequiredDocumentTypes must all be uploaded before submission.
// The order here is the order used in error messages.
var RequiredDocumentTypes = []DocumentType{
	DocW9,
	DocArticlesOfIncorporation,
	DocBankStatement,
}

// ParseDocumentType returns the DocumentType for s and whether it is known.
func ParseDocumentType(s string) (DocumentType, bool) {
	d := DocumentType(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range RequiredDocumentTypes {
		if t == d {
			return d, true
		}
	}
	return "", false
}

// EntityDocument is the single live document of a type for an organization.
// Exactly one document per (organization_id, document_type).
type EntityDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organizationId"`
	DocumentType   DocumentType       `bson:"document_type" json:"docType"`
	FileName       string             `bson:"file_name" json:"fileName"`
	FileURL        string             `bson:"file_url" json:"fileUrl"`
	FileType       string             `bson:"file_type" json:"fileType"`
	FileSizeBytes  int64              `bson:"file_size_bytes" json:"fileSizeBytes"`
	StoragePath    string             `bson:"storage_path" json:"-"`
	UploadedBy     primitive.ObjectID `bson:"uploaded_by" json:"uploadedBy"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}
