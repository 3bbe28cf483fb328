package generatedcvs

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/antonpme/CV-Optimizer/internal/shared/metrics"
	"github.com/antonpme/CV-Optimizer/internal/shared/telemetry"
)

// Export formats.
const (
	FormatHTML = "html"
	FormatDOCX = "docx"
)

const (
	maxSlugLength = 80
	fallbackSlug  = "tailored-cv"
	fallbackTitle = "Tailored CV"
)

// ExportFile is a rendered export ready to be streamed.
type ExportFile struct {
	Name        string
	ContentType string
	Body        []byte
}

// exportSection is one heading and body in a rendered export.
type exportSection struct {
	Name string
	Text string
}

type exportMeta struct {
	Title   string
	Company string
}

func (m exportMeta) heading() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{m.Title, m.Company} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " - ")
}

// Export renders an approved document. Every attempt that passes the
// review gate writes one export log row.
func (s *Service) Export(ctx context.Context, userID, id, format string) (ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatHTML
	}
	if format != FormatHTML && format != FormatDOCX {
		return ExportFile{}, invalid("Unsupported export format.")
	}
	if userID == "" || id == "" {
		return ExportFile{}, ErrInvalidInput
	}

	doc, err := s.Repo.Get(ctx, userID, id)
	if err != nil {
		return ExportFile{}, err
	}
	if s.Entitlements != nil && !s.Entitlements.Resolve(ctx, userID).AllowExport {
		return ExportFile{}, ErrExportNotAllowed
	}
	sections, err := s.Repo.Sections(ctx, userID, id)
	if err != nil {
		return ExportFile{}, err
	}
	if !CanExport(doc, sections) {
		return ExportFile{}, invalid("Approve all sections before exporting.")
	}

	meta := s.jobMeta(ctx, userID, doc.JobID)
	body := exportSections(doc, sections)
	name := Slugify(strings.TrimSpace(meta.Title+" "+meta.Company), fallbackSlug) + "." + format

	var file ExportFile
	switch format {
	case FormatDOCX:
		file.ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
		file.Body, err = renderDOCX(body, meta)
	default:
		file.ContentType = "text/html; charset=utf-8"
		file.Body, err = renderHTML(body, meta)
	}
	file.Name = name

	if err != nil {
		s.logExport(ctx, doc, format, ExportFailed, err.Error())
		return ExportFile{}, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	s.logExport(ctx, doc, format, ExportCompleted, "")
	return file, nil
}

func exportSections(doc Document, sections []Section) []exportSection {
	if len(sections) == 0 {
		return []exportSection{{Name: fallbackTitle, Text: doc.TailoredText}}
	}
	out := make([]exportSection, len(sections))
	for i, s := range sections {
		out[i] = exportSection{Name: s.Name, Text: s.exportText()}
	}
	return out
}

func (s *Service) jobMeta(ctx context.Context, userID, jobID string) exportMeta {
	if s.Jobs == nil {
		return exportMeta{}
	}
	found, err := s.Jobs.GetMany(ctx, userID, []string{jobID})
	if err != nil || len(found) == 0 {
		return exportMeta{}
	}
	return exportMeta{Title: found[0].Title, Company: found[0].Company}
}

func (s *Service) logExport(ctx context.Context, doc Document, format, status, notes string) {
	metrics.IncExport(format, status)
	err := s.Repo.InsertExport(ctx, ExportLog{
		ID:         s.newID(),
		UserID:     doc.UserID,
		DocumentID: doc.ID,
		Format:     format,
		Status:     status,
		Notes:      notes,
		CreatedAt:  s.now(),
	})
	if err != nil {
		telemetry.Error("generated.export_log_failed", map[string]any{
			"user_id":         doc.UserID,
			"generated_cv_id": doc.ID,
			"format":          format,
			"error":           err.Error(),
		})
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases value into dash-separated ASCII, capped at 80 characters.
func Slugify(value, fallback string) string {
	slug := nonSlug.ReplaceAllString(strings.ToLower(value), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return fallback
	}
	return slug
}
