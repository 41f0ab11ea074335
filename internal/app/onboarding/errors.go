package onboarding

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/crewpay/internal/domain/models"
)

// Error kinds. Callers test with errors.Is; messages from wrapped errors are
// safe to show to the employer.
var (
	ErrValidation = errors.New("invalid request")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)

// ErrUnderReview is returned by every document mutation while the entity is
// pending review.
var ErrUnderReview = fmt.Errorf("%w: entity verification is under review; documents cannot be changed", ErrConflict)

// MissingDocumentsError lists the required document types that have not been
// uploaded, in canonical order. It matches ErrValidation.
type MissingDocumentsError struct {
	Missing []models.DocumentType
}

func (e *MissingDocumentsError) Error() string {
	names := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		names[i] = string(m)
	}
	return "missing required documents: " + strings.Join(names, ", ")
}

func (e *MissingDocumentsError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
