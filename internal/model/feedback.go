package model

import (
	"strings"
	"time"
)

type ParticipateAgain string

const (
	ParticipateYes   ParticipateAgain = "yes"
	ParticipateNo    ParticipateAgain = "no"
	ParticipateMaybe ParticipateAgain = "maybe"
)

type HackathonFeedback struct {
	Email string `json:"email" validate:"required,email"`

	OverallExperience int `json:"overall_experience" validate:"required,min=1,max=5"`
	Organization      int `json:"organization" validate:"required,min=1,max=5"`
	ChallengeQuality  int `json:"challenge_quality" validate:"required,min=1,max=5"`
	MentorSupport     int `json:"mentor_support" validate:"required,min=1,max=5"`
	Communication     int `json:"communication" validate:"required,min=1,max=5"`

	Highlights   string `json:"highlights" validate:"required"`
	Improvements string `json:"improvements" validate:"required"`

	ChallengeComments  string `json:"challenge_comments,omitempty"`
	MentorComments     string `json:"mentor_comments,omitempty"`
	AdditionalComments string `json:"additional_comments,omitempty"`

	WouldParticipateAgain ParticipateAgain `json:"would_participate_again" validate:"required,oneof=yes no maybe"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

func (f *HackathonFeedback) Normalize() {
	f.Email = NormalizeEmail(f.Email)
	f.Highlights = strings.TrimSpace(f.Highlights)
	f.Improvements = strings.TrimSpace(f.Improvements)
}

type RegisteredParticipant struct {
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

type ImportSummary struct {
	Added   int      `json:"added"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}
