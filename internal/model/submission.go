package model

import (
	"time"

	"github.com/aarondl/opt/omitnull"
)

type FileKind string

const (
	FileKindSlide FileKind = "slide"
	FileKindVideo FileKind = "video"
	FileKindImage FileKind = "image"
)

func (k FileKind) Valid() bool {
	switch k {
	case FileKindSlide, FileKindVideo, FileKindImage:
		return true
	}
	return false
}

type FileRef struct {
	URL      string `json:"url" dynamodbav:"URL"`
	FileName string `json:"fileName" dynamodbav:"FileName"`
}

type ProjectSubmission struct {
	TeamID             string     `json:"team_id"`
	ProjectName        string     `json:"project_name"`
	ProjectDescription string     `json:"project_description"`
	GithubURL          *string    `json:"github_url"`
	DeployedURL        *string    `json:"deployed_url"`
	Slides             []FileRef  `json:"slides"`
	Videos             []FileRef  `json:"videos"`
	Images             []FileRef  `json:"images"`
	SubmittedAt        *time.Time `json:"submitted_at,omitempty"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

// Files returns the list that holds references of the given kind.
func (s *ProjectSubmission) Files(kind FileKind) *[]FileRef {
	switch kind {
	case FileKindSlide:
		return &s.Slides
	case FileKindVideo:
		return &s.Videos
	default:
		return &s.Images
	}
}

// SubmissionInput is what the team lead sends on save. Optional URLs are
// three-state: unset keeps the stored value, null clears it, a value replaces it.
type SubmissionInput struct {
	ProjectName        string               `json:"project_name" validate:"required"`
	ProjectDescription string               `json:"project_description" validate:"required"`
	GithubURL          omitnull.Val[string] `json:"github_url"`
	DeployedURL        omitnull.Val[string] `json:"deployed_url"`
}

// TeamSubmission is what the lead sees on entry to the submission form.
type TeamSubmission struct {
	Team       *Team              `json:"team"`
	Submission *ProjectSubmission `json:"submission"`
}
