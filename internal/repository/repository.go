package repository

import "context"

type TeamRepository interface {
	// Create stores a new team and fills Version, CreatedAt and UpdatedAt.
	// ErrAlreadyExists when the id or the creator email is taken.
	Create(ctx context.Context, team *Team) error
	Get(ctx context.Context, id string) (*Team, error)
	GetByCreator(ctx context.Context, email string) (*Team, error)
	GetAll(ctx context.Context) ([]*Team, error)
	// Update writes the team only if the stored version equals team.Version,
	// then bumps Version and UpdatedAt. ErrConflict otherwise.
	Update(ctx context.Context, team *Team) error
	Delete(ctx context.Context, id string) error
}

type SubmissionRepository interface {
	Get(ctx context.Context, teamID string) (*Submission, error)
	// Upsert writes the whole document. SubmittedAt is kept from the first write.
	Upsert(ctx context.Context, s *Submission) error
	GetAll(ctx context.Context) ([]*Submission, error)
	Delete(ctx context.Context, teamID string) error
}

type FeedbackRepository interface {
	// Create fails with ErrAlreadyExists when feedback for the email is stored.
	Create(ctx context.Context, f *Feedback) error
	Exists(ctx context.Context, email string) (bool, error)
	Get(ctx context.Context, email string) (*Feedback, error)
	GetAll(ctx context.Context) ([]*Feedback, error)
	Delete(ctx context.Context, email string) error
}

type ParticipantRepository interface {
	Create(ctx context.Context, p *Participant) error
	Exists(ctx context.Context, email string) (bool, error)
	GetAll(ctx context.Context) ([]*Participant, error)
}
