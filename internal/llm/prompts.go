package llm

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
)

var (
	//go:embed prompts/optimize.txt
	optimizePrompt string
	//go:embed prompts/tailor.txt
	tailorPrompt string
)

// SystemPrompt is sent ahead of every user prompt.
const SystemPrompt = "You are an expert CV optimizer. Respond ONLY with JSON matching the provided schema."

// OptimizePrompt renders the user prompt for an optimization request.
func OptimizePrompt(input OptimizeInput) string {
	return strings.NewReplacer(
		"{{EMBELLISHMENT_LEVEL}}", strconv.Itoa(input.EmbellishmentLevel),
		"{{PROFILE}}", profileSummary(input.Profile),
		"{{CV_TEXT}}", input.CVText,
	).Replace(optimizePrompt)
}

// TailorPrompt renders the user prompt for a tailoring request.
func TailorPrompt(input TailorInput) string {
	return strings.NewReplacer(
		"{{EMBELLISHMENT_LEVEL}}", strconv.Itoa(input.EmbellishmentLevel),
		"{{PROFILE}}", profileSummary(input.Profile),
		"{{JOB_TITLE}}", orNA(input.JobTitle),
		"{{COMPANY}}", orNA(input.Company),
		"{{JOB_DESCRIPTION}}", input.JobDescription,
		"{{BASE_CV}}", input.BaseCV,
	).Replace(tailorPrompt)
}

func profileSummary(p Profile) string {
	level := "Not specified"
	if p.EmbellishmentLevel > 0 {
		level = strconv.Itoa(p.EmbellishmentLevel)
	}
	return fmt.Sprintf("Full name: %s\nJob title: %s\nIndustry: %s\nProfessional summary: %s\nPreferred embellishment level: %s",
		orNA(p.FullName), orNA(p.JobTitle), orNA(p.Industry), orNA(p.ProfessionalSummary), level)
}

func orNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return "N/A"
	}
	return v
}
