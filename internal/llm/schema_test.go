package llm

import (
	"errors"
	"testing"
)

func TestParseOptimizeResult(t *testing.T) {
	res, err := ParseOptimizeResult([]byte(`{
		"optimized_cv": "  Jane Doe\nEngineer  ",
		"changes_summary": [{"section": "Experience", "change": "Added metrics", "confidence": 0.9}],
		"overall_confidence": 0.85
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.OptimizedCV != "Jane Doe\nEngineer" {
		t.Fatalf("expected trimmed cv, got %q", res.OptimizedCV)
	}
	if len(res.ChangesSummary) != 1 || res.Recommendations == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestParseOptimizeResultRejects(t *testing.T) {
	cases := map[string]string{
		"not json":         `optimized`,
		"missing cv":       `{"changes_summary": []}`,
		"blank cv":         `{"optimized_cv": "   "}`,
		"confidence range": `{"optimized_cv": "x", "overall_confidence": 1.5}`,
		"change range":     `{"optimized_cv": "x", "changes_summary": [{"section": "a", "change": "b", "confidence": -0.1}]}`,
		"wrong type":       `{"optimized_cv": 12}`,
	}
	for name, raw := range cases {
		if _, err := ParseOptimizeResult([]byte(raw)); !errors.Is(err, ErrSchemaMismatch) {
			t.Fatalf("%s: expected ErrSchemaMismatch, got %v", name, err)
		}
	}
}

func TestParseTailorResult(t *testing.T) {
	res, err := ParseTailorResult([]byte(`{
		"tailored_cv": "CV",
		"match_analysis": {"overall_match_score": 0.7, "strengths": ["Go"], "gaps": []},
		"sections": [
			{"name": " Summary ", "reference_section": "old", "tailored_section": " new "},
			{"name": "Experience", "reference_section": "old", "tailored_section": "new", "rationale": "fit"}
		]
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Sections) != 2 || res.Sections[0].Name != "Summary" || res.Sections[0].TailoredSection != "new" {
		t.Fatalf("unexpected sections: %+v", res.Sections)
	}

	if _, err := ParseTailorResult([]byte(`{"tailored_cv": "CV", "sections": [{"name": "", "tailored_section": "x"}]}`)); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch for unnamed section, got %v", err)
	}
	// no sections parses; the batch rejects it as a business rule
	if _, err := ParseTailorResult([]byte(`{"tailored_cv": "CV"}`)); err != nil {
		t.Fatalf("expected no sections to parse, got %v", err)
	}
}
