package repository

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
)

// CreatedByIndex is the GSI on the teams table keyed by CreatedBy.
const CreatedByIndex = "CreatedByIndex"

type DynamoTeamRepository struct {
	Client    DynamoClient
	TableName string
}

func NewDynamoTeamRepository(client DynamoClient, table string) TeamRepository {
	return &DynamoTeamRepository{Client: client, TableName: table}
}

// Create checks the creator index before the conditional put. The index is
// eventually consistent, so two simultaneous creates by the same email can both pass it.
func (s *DynamoTeamRepository) Create(ctx context.Context, team *Team) error {
	if _, err := s.GetByCreator(ctx, team.CreatedBy); err == nil {
		return ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	now := time.Now().UTC()
	team.Version = 1
	team.CreatedAt = now
	team.UpdatedAt = now

	return putNew(ctx, s.Client, s.TableName, team)
}

func (s *DynamoTeamRepository) Get(ctx context.Context, id string) (*Team, error) {
	team := &Team{}
	if err := getItem(ctx, s.Client, s.TableName, id, team); err != nil {
		return nil, err
	}
	return team, nil
}

func (s *DynamoTeamRepository) GetByCreator(ctx context.Context, email string) (*Team, error) {
	out, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.TableName),
		IndexName:              aws.String(CreatedByIndex),
		KeyConditionExpression: aws.String("CreatedBy = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, errors.Wrap(err, "query teams by creator")
	}
	if len(out.Items) == 0 {
		return nil, ErrNotFound
	}

	team := &Team{}
	if err = attributevalue.UnmarshalMap(out.Items[0], team); err != nil {
		return nil, errors.Wrap(err, "unmarshal team")
	}
	return team, nil
}

func (s *DynamoTeamRepository) GetAll(ctx context.Context) ([]*Team, error) {
	teams, err := scanAll[Team](ctx, s.Client, s.TableName)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(teams, func(i, j int) bool {
		return teams[i].CreatedAt.Before(teams[j].CreatedAt)
	})
	return teams, nil
}

func (s *DynamoTeamRepository) Update(ctx context.Context, team *Team) error {
	next := *team
	next.Version = team.Version + 1
	next.UpdatedAt = time.Now().UTC()

	item, err := attributevalue.MarshalMap(next)
	if err != nil {
		return errors.Wrap(err, "marshal team")
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.TableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(PK) AND #version = :expected"),
		ExpressionAttributeNames: map[string]string{
			"#version": "Version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.Itoa(team.Version)},
		},
	})
	if err != nil {
		if !isConditionFailed(err) {
			return errors.Wrap(err, "put team")
		}
		if _, getErr := s.Get(ctx, team.ID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConflict
	}

	team.Version = next.Version
	team.UpdatedAt = next.UpdatedAt
	return nil
}

func (s *DynamoTeamRepository) Delete(ctx context.Context, id string) error {
	return deleteExisting(ctx, s.Client, s.TableName, id)
}
