package model

import "fmt"

// Repository identifies a GitHub repository by owner and name.
type Repository struct {
	Owner string
	Name  string
}

// FullName returns the "owner/repo" form.
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// ListClosedPullsPath returns the API path listing closed pull requests, most
// recently updated first. perPage is appended only when positive.
func (r Repository) ListClosedPullsPath(perPage int) string {
	path := fmt.Sprintf("repos/%s/%s/pulls?state=closed&sort=updated&direction=desc", r.Owner, r.Name)
	if perPage > 0 {
		path += fmt.Sprintf("&per_page=%d", perPage)
	}
	return path
}

// PullPath returns the API path of a single pull request.
func (r Repository) PullPath(number int) string {
	return fmt.Sprintf("repos/%s/%s/pulls/%d", r.Owner, r.Name, number)
}
