package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/folio-labs/portfolio-api/internal/contact"
)

var (
	ErrNotFound         = contact.ErrNotFound
	ErrUnsupportedField = errors.New("unsupported field")
)

// FieldIsRead is the only field UpdateField accepts.
const FieldIsRead = "isRead"

// Sort orders Query results by a single field.
type Sort struct {
	Field string
	Desc  bool
}

// NewestFirst orders by creation time, most recent first.
var NewestFirst = Sort{Field: "createdAt", Desc: true}

// Store persists submissions. Insert must not return before the write is
// durable; ids are assigned by the store.
type Store interface {
	Insert(ctx context.Context, s *contact.Submission) (string, error)
	Query(ctx context.Context, f contact.ListFilter, sort Sort, skip, limit int) ([]*contact.Submission, error)
	Count(ctx context.Context, f contact.ListFilter) (int64, error)
	UpdateField(ctx context.Context, id, field string, value any) (*contact.Submission, error)
}

func checkUpdate(field string, value any) error {
	if field != FieldIsRead {
		return fmt.Errorf("%w: %q", ErrUnsupportedField, field)
	}
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("%w: %s expects a bool, got %T", ErrUnsupportedField, field, value)
	}
	return nil
}

func checkSort(sort Sort) error {
	switch sort.Field {
	case "createdAt", "":
		return nil
	}
	return fmt.Errorf("%w: cannot sort by %q", ErrUnsupportedField, sort.Field)
}
