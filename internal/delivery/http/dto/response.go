package dto

import "fixitnow/internal/domain/job"

// JobList keeps the list envelope the mobile client reads.
type JobList struct {
	Jobs  []job.Job `json:"jobs"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Pages int       `json:"pages"`
}

type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}
