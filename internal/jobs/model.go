package jobs

import "time"

// JobDescription is a stored posting a tailored CV can target.
type JobDescription struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	TextContent string    `json:"textContent"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Label names the job in user-facing messages.
func (j JobDescription) Label() string {
	switch {
	case j.Title != "" && j.Company != "":
		return j.Title + " at " + j.Company
	case j.Title != "":
		return j.Title
	case j.Company != "":
		return j.Company
	default:
		return "Untitled job"
	}
}
