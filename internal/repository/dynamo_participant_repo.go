package repository

import (
	"context"
	"sort"
	"time"
)

type DynamoParticipantRepository struct {
	Client    DynamoClient
	TableName string
}

func NewDynamoParticipantRepository(client DynamoClient, table string) ParticipantRepository {
	return &DynamoParticipantRepository{Client: client, TableName: table}
}

func (s *DynamoParticipantRepository) Create(ctx context.Context, p *Participant) error {
	if p.RegisteredAt.IsZero() {
		p.RegisteredAt = time.Now().UTC()
	}
	return putNew(ctx, s.Client, s.TableName, p)
}

func (s *DynamoParticipantRepository) Exists(ctx context.Context, email string) (bool, error) {
	return itemExists(ctx, s.Client, s.TableName, email)
}

func (s *DynamoParticipantRepository) GetAll(ctx context.Context) ([]*Participant, error) {
	all, err := scanAll[Participant](ctx, s.Client, s.TableName)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].RegisteredAt.Before(all[j].RegisteredAt)
	})
	return all, nil
}
