package repository

import (
	"context"
	"sort"
	"time"
)

type DynamoFeedbackRepository struct {
	Client    DynamoClient
	TableName string
}

func NewDynamoFeedbackRepository(client DynamoClient, table string) FeedbackRepository {
	return &DynamoFeedbackRepository{Client: client, TableName: table}
}

func (s *DynamoFeedbackRepository) Create(ctx context.Context, f *Feedback) error {
	f.SubmittedAt = time.Now().UTC()
	return putNew(ctx, s.Client, s.TableName, f)
}

func (s *DynamoFeedbackRepository) Exists(ctx context.Context, email string) (bool, error) {
	return itemExists(ctx, s.Client, s.TableName, email)
}

func (s *DynamoFeedbackRepository) Get(ctx context.Context, email string) (*Feedback, error) {
	f := &Feedback{}
	if err := getItem(ctx, s.Client, s.TableName, email, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *DynamoFeedbackRepository) GetAll(ctx context.Context) ([]*Feedback, error) {
	all, err := scanAll[Feedback](ctx, s.Client, s.TableName)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].SubmittedAt.Before(all[j].SubmittedAt)
	})
	return all, nil
}

func (s *DynamoFeedbackRepository) Delete(ctx context.Context, email string) error {
	return deleteExisting(ctx, s.Client, s.TableName, email)
}
