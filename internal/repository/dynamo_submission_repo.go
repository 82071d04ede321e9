package repository

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
	"github.com/yakoovad/hackathon-portal/internal/model"
)

const submissionUpdateExpression = "SET #name = :name, #desc = :desc, #github = :github, #deployed = :deployed, " +
	"#slides = :slides, #videos = :videos, #images = :images, #updated = :now, " +
	"#submitted = if_not_exists(#submitted, :now)"

type DynamoSubmissionRepository struct {
	Client    DynamoClient
	TableName string
}

func NewDynamoSubmissionRepository(client DynamoClient, table string) SubmissionRepository {
	return &DynamoSubmissionRepository{Client: client, TableName: table}
}

func (s *DynamoSubmissionRepository) Get(ctx context.Context, teamID string) (*Submission, error) {
	sub := &Submission{}
	if err := getItem(ctx, s.Client, s.TableName, teamID, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *DynamoSubmissionRepository) Upsert(ctx context.Context, sub *Submission) error {
	values := map[string]any{
		":name":     sub.ProjectName,
		":desc":     sub.ProjectDescription,
		":github":   sub.GithubURL,
		":deployed": sub.DeployedURL,
		":slides":   nonNilFiles(sub.Slides),
		":videos":   nonNilFiles(sub.Videos),
		":images":   nonNilFiles(sub.Images),
		":now":      time.Now().UTC(),
	}
	av := make(map[string]types.AttributeValue, len(values))
	for k, v := range values {
		m, err := attributevalue.Marshal(v)
		if err != nil {
			return errors.Wrapf(err, "marshal %s", k)
		}
		av[k] = m
	}

	out, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.TableName),
		Key:              stringKey(sub.TeamID),
		UpdateExpression: aws.String(submissionUpdateExpression),
		ExpressionAttributeNames: map[string]string{
			"#name":      "ProjectName",
			"#desc":      "ProjectDescription",
			"#github":    "GithubURL",
			"#deployed":  "DeployedURL",
			"#slides":    "Slides",
			"#videos":    "Videos",
			"#images":    "Images",
			"#updated":   "UpdatedAt",
			"#submitted": "SubmittedAt",
		},
		ExpressionAttributeValues: av,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return errors.Wrap(err, "update submission")
	}

	stored := &Submission{}
	if err = attributevalue.UnmarshalMap(out.Attributes, stored); err != nil {
		return errors.Wrap(err, "unmarshal submission")
	}
	sub.SubmittedAt = stored.SubmittedAt
	sub.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *DynamoSubmissionRepository) GetAll(ctx context.Context) ([]*Submission, error) {
	subs, err := scanAll[Submission](ctx, s.Client, s.TableName)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].SubmittedAt.Before(subs[j].SubmittedAt)
	})
	return subs, nil
}

func (s *DynamoSubmissionRepository) Delete(ctx context.Context, teamID string) error {
	return deleteExisting(ctx, s.Client, s.TableName, teamID)
}

func nonNilFiles(files []model.FileRef) []model.FileRef {
	if files == nil {
		return []model.FileRef{}
	}
	return files
}
