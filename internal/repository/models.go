package repository

import (
	"time"

	"github.com/yakoovad/hackathon-portal/internal/model"
)

type Team struct {
	ID         string        `dynamodbav:"PK"`
	Name       string        `dynamodbav:"TeamName"`
	Challenge  string        `dynamodbav:"Challenge"`
	CreatedBy  string        `dynamodbav:"CreatedBy"`
	Members    []*TeamMember `dynamodbav:"Members"`
	MaxMembers int           `dynamodbav:"MaxMembers"`
	Locked     bool          `dynamodbav:"Locked"`
	Version    int           `dynamodbav:"Version"`
	CreatedAt  time.Time     `dynamodbav:"CreatedAt"`
	UpdatedAt  time.Time     `dynamodbav:"UpdatedAt"`
}

// TeamMember is stored inline in the team document (JSONB in Postgres, a list in DynamoDB).
type TeamMember struct {
	ID      string           `json:"id" dynamodbav:"ID"`
	Name    string           `json:"name" dynamodbav:"Name"`
	Email   string           `json:"email" dynamodbav:"Email"`
	Role    model.MemberRole `json:"role" dynamodbav:"Role"`
	AddedAt time.Time        `json:"added_at" dynamodbav:"AddedAt"`
}

type Submission struct {
	TeamID             string          `dynamodbav:"PK"`
	ProjectName        string          `dynamodbav:"ProjectName"`
	ProjectDescription string          `dynamodbav:"ProjectDescription"`
	GithubURL          *string         `dynamodbav:"GithubURL"`
	DeployedURL        *string         `dynamodbav:"DeployedURL"`
	Slides             []model.FileRef `dynamodbav:"Slides"`
	Videos             []model.FileRef `dynamodbav:"Videos"`
	Images             []model.FileRef `dynamodbav:"Images"`
	SubmittedAt        time.Time       `dynamodbav:"SubmittedAt"`
	UpdatedAt          time.Time       `dynamodbav:"UpdatedAt"`
}

type Feedback struct {
	Email                 string                 `dynamodbav:"PK"`
	OverallExperience     int                    `dynamodbav:"OverallExperience"`
	Organization          int                    `dynamodbav:"Organization"`
	ChallengeQuality      int                    `dynamodbav:"ChallengeQuality"`
	MentorSupport         int                    `dynamodbav:"MentorSupport"`
	Communication         int                    `dynamodbav:"Communication"`
	Highlights            string                 `dynamodbav:"Highlights"`
	Improvements          string                 `dynamodbav:"Improvements"`
	ChallengeComments     string                 `dynamodbav:"ChallengeComments"`
	MentorComments        string                 `dynamodbav:"MentorComments"`
	AdditionalComments    string                 `dynamodbav:"AdditionalComments"`
	WouldParticipateAgain model.ParticipateAgain `dynamodbav:"WouldParticipateAgain"`
	SubmittedAt           time.Time              `dynamodbav:"SubmittedAt"`
}

type Participant struct {
	Email        string    `dynamodbav:"PK"`
	RegisteredAt time.Time `dynamodbav:"RegisteredAt"`
}
