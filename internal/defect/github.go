package defect

import (
	"context"
	"fmt"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// issueCreator is the slice of the GitHub Issues API the exporter needs.
// *github.IssuesService satisfies it.
type issueCreator interface {
	Create(ctx context.Context, owner, repo string, issue *github.IssueRequest) (*github.Issue, *github.Response, error)
}

// Exporter mirrors defects to GitHub issues.
type Exporter struct {
	owner  string
	repo   string
	issues issueCreator
}

// NewExporter builds an exporter against the given repository using a
// personal access token.
func NewExporter(ctx context.Context, token, owner, repo string) (*Exporter, error) {
	if token == "" || owner == "" || repo == "" {
		return nil, fmt.Errorf("defect: github export needs token, owner and repo")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))
	return &Exporter{owner: owner, repo: repo, issues: client.Issues}, nil
}

// ExportIssue files a GitHub issue for the defect and returns its URL. The
// issue title carries the defect code so the two stay correlatable.
func (e *Exporter) ExportIssue(ctx context.Context, db *gorm.DB, defectID uint) (string, error) {
	d, err := Get(db, defectID)
	if err != nil {
		return "", err
	}

	title := fmt.Sprintf("%s: %s", d.DefectCode, d.Title)
	body := d.Description
	if d.Resolution != "" {
		body = fmt.Sprintf("%s\n\nResolution: %s", body, d.Resolution)
	}
	labels := []string{"defect", "severity/" + d.Severity, "type/" + d.DefectType}

	req := &github.IssueRequest{
		Title:  github.Ptr(title),
		Body:   github.Ptr(body),
		Labels: &labels,
	}
	issue, _, err := e.issues.Create(ctx, e.owner, e.repo, req)
	if err != nil {
		return "", fmt.Errorf("defect: export %s to github: %w", d.DefectCode, err)
	}
	return issue.GetHTMLURL(), nil
}
