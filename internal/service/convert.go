package service

import (
	"time"

	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/repository"
)

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func teamFromRepo(r *repository.Team) *model.Team {
	members := make([]*model.Member, 0, len(r.Members))
	for _, m := range r.Members {
		members = append(members, &model.Member{
			ID:      m.ID,
			Name:    m.Name,
			Email:   m.Email,
			Role:    m.Role,
			AddedAt: m.AddedAt,
		})
	}
	return &model.Team{
		ID:         r.ID,
		Name:       r.Name,
		Challenge:  r.Challenge,
		CreatedBy:  r.CreatedBy,
		Members:    members,
		MaxMembers: r.MaxMembers,
		Locked:     r.Locked,
		Version:    r.Version,
		CreatedAt:  timePtr(r.CreatedAt),
		UpdatedAt:  timePtr(r.UpdatedAt),
	}
}

func teamToRepo(t *model.Team) *repository.Team {
	members := make([]*repository.TeamMember, 0, len(t.Members))
	for _, m := range t.Members {
		members = append(members, &repository.TeamMember{
			ID:      m.ID,
			Name:    m.Name,
			Email:   m.Email,
			Role:    m.Role,
			AddedAt: m.AddedAt,
		})
	}
	r := &repository.Team{
		ID:         t.ID,
		Name:       t.Name,
		Challenge:  t.Challenge,
		CreatedBy:  t.CreatedBy,
		Members:    members,
		MaxMembers: t.MaxMembers,
		Locked:     t.Locked,
		Version:    t.Version,
	}
	if t.CreatedAt != nil {
		r.CreatedAt = *t.CreatedAt
	}
	return r
}

func submissionFromRepo(r *repository.Submission) *model.ProjectSubmission {
	return &model.ProjectSubmission{
		TeamID:             r.TeamID,
		ProjectName:        r.ProjectName,
		ProjectDescription: r.ProjectDescription,
		GithubURL:          r.GithubURL,
		DeployedURL:        r.DeployedURL,
		Slides:             r.Slides,
		Videos:             r.Videos,
		Images:             r.Images,
		SubmittedAt:        timePtr(r.SubmittedAt),
		UpdatedAt:          timePtr(r.UpdatedAt),
	}
}

func submissionToRepo(s *model.ProjectSubmission) *repository.Submission {
	return &repository.Submission{
		TeamID:             s.TeamID,
		ProjectName:        s.ProjectName,
		ProjectDescription: s.ProjectDescription,
		GithubURL:          s.GithubURL,
		DeployedURL:        s.DeployedURL,
		Slides:             s.Slides,
		Videos:             s.Videos,
		Images:             s.Images,
	}
}

func feedbackFromRepo(r *repository.Feedback) *model.HackathonFeedback {
	return &model.HackathonFeedback{
		Email:                 r.Email,
		OverallExperience:     r.OverallExperience,
		Organization:          r.Organization,
		ChallengeQuality:      r.ChallengeQuality,
		MentorSupport:         r.MentorSupport,
		Communication:         r.Communication,
		Highlights:            r.Highlights,
		Improvements:          r.Improvements,
		ChallengeComments:     r.ChallengeComments,
		MentorComments:        r.MentorComments,
		AdditionalComments:    r.AdditionalComments,
		WouldParticipateAgain: r.WouldParticipateAgain,
		SubmittedAt:           timePtr(r.SubmittedAt),
	}
}

func feedbackToRepo(f *model.HackathonFeedback) *repository.Feedback {
	return &repository.Feedback{
		Email:                 f.Email,
		OverallExperience:     f.OverallExperience,
		Organization:          f.Organization,
		ChallengeQuality:      f.ChallengeQuality,
		MentorSupport:         f.MentorSupport,
		Communication:         f.Communication,
		Highlights:            f.Highlights,
		Improvements:          f.Improvements,
		ChallengeComments:     f.ChallengeComments,
		MentorComments:        f.MentorComments,
		AdditionalComments:    f.AdditionalComments,
		WouldParticipateAgain: f.WouldParticipateAgain,
	}
}
