package httpapi

import "jobwatch-engine/internal/domain"

const (
	SetAll      = "all"
	SetFiltered = "filtered"
	SetNew      = "new"
)

type JobView struct {
	domain.JobRecord
	ApplyURL string `json:"apply_url"`
	Identity string `json:"identity"`
}

type JobsResponse struct {
	RunID       string    `json:"run_id"`
	Set         string    `json:"set"`
	FinishedAt  string    `json:"finished_at,omitempty"`
	FormatDrift bool      `json:"format_drift"`
	Count       int       `json:"count"`
	Jobs        []JobView `json:"jobs"`
}

type RunResponse struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg,omitempty"`
}
