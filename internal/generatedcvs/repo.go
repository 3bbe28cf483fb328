package generatedcvs

import (
	"context"
	"time"
)

// Repo defines persistence operations for generated CVs and their sections.
type Repo interface {
	// CreateWithSections stores a document and all of its sections atomically.
	CreateWithSections(ctx context.Context, doc Document, sections []Section) error
	Get(ctx context.Context, userID, id string) (Document, error)
	List(ctx context.Context, userID string, limit, offset int) ([]Document, error)
	// Sections returns a document's sections by ordering.
	Sections(ctx context.Context, userID, documentID string) ([]Section, error)
	Section(ctx context.Context, userID, sectionID string) (Section, error)
	UpdateSection(ctx context.Context, section Section) error
	UpdateStatus(ctx context.Context, userID, documentID string, status DocumentStatus, at time.Time) error
	InsertExport(ctx context.Context, log ExportLog) error
}
