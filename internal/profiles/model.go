package profiles

import (
	"time"

	"github.com/antonpme/CV-Optimizer/internal/llm"
)

const (
	DefaultEmbellishmentLevel = 3
	DefaultDataRetentionDays  = 90
)

// Profile is the candidate context used to steer generation.
type Profile struct {
	UserID              string    `json:"userId"`
	FullName            string    `json:"fullName"`
	JobTitle            string    `json:"jobTitle"`
	ProfessionalSummary string    `json:"professionalSummary"`
	Industry            string    `json:"industry"`
	EmbellishmentLevel  int       `json:"embellishmentLevel"`
	DataRetentionDays   int       `json:"dataRetentionDays"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Default returns the profile used when a user has not saved one.
func Default(userID string) Profile {
	return Profile{
		UserID:             userID,
		EmbellishmentLevel: DefaultEmbellishmentLevel,
		DataRetentionDays:  DefaultDataRetentionDays,
	}
}

// LLM converts the profile into the model's prompt context.
func (p Profile) LLM() llm.Profile {
	return llm.Profile{
		FullName:            p.FullName,
		JobTitle:            p.JobTitle,
		ProfessionalSummary: p.ProfessionalSummary,
		Industry:            p.Industry,
		EmbellishmentLevel:  p.EmbellishmentLevel,
	}
}
