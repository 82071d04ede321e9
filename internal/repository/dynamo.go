package repository

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
)

// DynamoClient is the subset of *dynamodb.Client the repositories call.
type DynamoClient interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

const dynamoPK = "PK"

func stringKey(value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamoPK: &types.AttributeValueMemberS{Value: value},
	}
}

func isConditionFailed(err error) bool {
	var cce *types.ConditionalCheckFailedException
	return errors.As(err, &cce)
}

// getItem loads the item under key into out. ErrNotFound when absent.
func getItem(ctx context.Context, client DynamoClient, table, key string, out any) error {
	res, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            stringKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return errors.Wrapf(err, "get item from %s", table)
	}
	if res.Item == nil {
		return ErrNotFound
	}
	if err = attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return errors.Wrapf(err, "unmarshal item from %s", table)
	}
	return nil
}

// putNew writes item only if no item with the same key exists.
func putNew(ctx context.Context, client DynamoClient, table string, item any) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return errors.Wrapf(err, "marshal item for %s", table)
	}
	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrAlreadyExists
		}
		return errors.Wrapf(err, "put item into %s", table)
	}
	return nil
}

// deleteExisting removes the item under key. ErrNotFound when it was absent.
func deleteExisting(ctx context.Context, client DynamoClient, table, key string) error {
	_, err := client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(table),
		Key:                 stringKey(key),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return errors.Wrapf(err, "delete item from %s", table)
	}
	return nil
}

func itemExists(ctx context.Context, client DynamoClient, table, key string) (bool, error) {
	res, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(table),
		Key:                  stringKey(key),
		ProjectionExpression: aws.String(dynamoPK),
		ConsistentRead:       aws.Bool(true),
	})
	if err != nil {
		return false, errors.Wrapf(err, "get item from %s", table)
	}
	return res.Item != nil, nil
}

// scanAll reads every page of a table into a slice of T.
func scanAll[T any](ctx context.Context, client DynamoClient, table string) ([]*T, error) {
	paginator := dynamodb.NewScanPaginator(client, &dynamodb.ScanInput{
		TableName: aws.String(table),
	})

	var out []*T
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "scan %s", table)
		}
		var items []*T
		if err = attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, errors.Wrapf(err, "unmarshal %s page", table)
		}
		out = append(out, items...)
	}
	return out, nil
}
