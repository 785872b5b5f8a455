package model

import (
	"strconv"
	"time"
)

// Report is the outcome of one selection run: the pull requests of Repository
// merged strictly after pull request Since, in listing order.
type Report struct {
	ID           string
	Repository   Repository
	Since        int
	Boundary     time.Time
	GeneratedAt  time.Time
	PagesFetched int
	Pulls        []PullRequest
}

// Title returns a one-line heading for rendered output.
func (r Report) Title() string {
	return r.Repository.FullName() + " merged after #" + strconv.Itoa(r.Since)
}

// ReportSummary is the listing form of a stored Report, without its pulls.
type ReportSummary struct {
	ID          string
	Repository  Repository
	Since       int
	Boundary    time.Time
	GeneratedAt time.Time
	PullCount   int
}
