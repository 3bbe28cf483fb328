package generatedcvs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores generated CVs in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu       sync.RWMutex
	docs     map[string]Document
	sections map[string]Section
	exports  []ExportLog
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:     make(map[string]Document),
		sections: make(map[string]Section),
	}
}

// CreateWithSections stores the document and its sections.
func (r *MemoryRepo) CreateWithSections(ctx context.Context, doc Document, sections []Section) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	for _, s := range sections {
		r.sections[s.ID] = s
	}
	return nil
}

// Get returns a document owned by userID.
func (r *MemoryRepo) Get(ctx context.Context, userID, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok || doc.UserID != userID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// List returns a user's documents, newest first, with limit/offset.
func (r *MemoryRepo) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.RLock()
	docs := []Document{}
	for _, doc := range r.docs {
		if doc.UserID == userID {
			docs = append(docs, doc)
		}
	}
	r.mu.RUnlock()

	if offset >= len(docs) {
		return []Document{}, nil
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	end := len(docs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end], nil
}

// Sections returns a document's sections by ordering.
func (r *MemoryRepo) Sections(ctx context.Context, userID, documentID string) ([]Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Section{}
	for _, s := range r.sections {
		if s.DocumentID == documentID && s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Ordering < out[j].Ordering
	})
	return out, nil
}

// Section returns one section owned by userID.
func (r *MemoryRepo) Section(ctx context.Context, userID, sectionID string) (Section, error) {
	if err := ctx.Err(); err != nil {
		return Section{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sections[sectionID]
	if !ok || s.UserID != userID {
		return Section{}, ErrNotFound
	}
	return s, nil
}

// UpdateSection replaces the section's review fields.
func (r *MemoryRepo) UpdateSection(ctx context.Context, section Section) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.sections[section.ID]
	if !ok || current.UserID != section.UserID {
		return ErrNotFound
	}
	current.Status = section.Status
	current.FinalText = section.FinalText
	current.UpdatedAt = section.UpdatedAt
	r.sections[section.ID] = current
	return nil
}

// UpdateStatus sets a document's aggregate status.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, userID, documentID string, status DocumentStatus, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.UserID != userID {
		return ErrNotFound
	}
	doc.Status = status
	doc.UpdatedAt = at
	r.docs[documentID] = doc
	return nil
}

// InsertExport appends an export log row.
func (r *MemoryRepo) InsertExport(ctx context.Context, log ExportLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exports = append(r.exports, log)
	return nil
}

// Exports returns the export log rows for userID. Intended for tests.
func (r *MemoryRepo) Exports(userID string) []ExportLog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []ExportLog{}
	for _, e := range r.exports {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

var _ Repo = (*MemoryRepo)(nil)
