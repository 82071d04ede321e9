package app

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hellofresh/health-go/v5"
	"github.com/pkg/errors"
	"github.com/yakoovad/hackathon-portal/internal/api"
	"github.com/yakoovad/hackathon-portal/internal/config"
	"github.com/yakoovad/hackathon-portal/internal/db"
	"github.com/yakoovad/hackathon-portal/internal/repository"
	"github.com/yakoovad/hackathon-portal/internal/storage"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

// Stores holds the repositories of the configured driver.
type Stores struct {
	Tx db.Transactor

	Teams        repository.TeamRepository
	Submissions  repository.SubmissionRepository
	Feedback     repository.FeedbackRepository
	Participants repository.ParticipantRepository

	Health health.Config
	Close  func()
}

func LoadAWS(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "load aws config")
	}
	return awsCfg, nil
}

func OpenStores(ctx context.Context, cfg *config.Config, awsCfg aws.Config) (*Stores, error) {
	l := logger.FromContext(ctx)

	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pool, err := db.ConnectPgx(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err = db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		l.Info("database connection established", zap.String("driver", string(cfg.StorageDriver)))

		return &Stores{
			Tx:           db.NewPgxTransactor(pool),
			Teams:        repository.NewPgxTeamRepository(pool),
			Submissions:  repository.NewPgxSubmissionRepository(pool),
			Feedback:     repository.NewPgxFeedbackRepository(pool),
			Participants: repository.NewPgxParticipantRepository(pool),
			Health:       api.PingCheck("postgres", pool.Ping),
			Close:        pool.Close,
		}, nil

	case config.DriverDynamo:
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.AWS.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
			}
		})
		l.Info("using dynamodb tables", zap.String("region", cfg.AWS.Region), zap.String("teams", cfg.Dynamo.TeamsTable))

		return &Stores{
			Tx:           db.NewPassthroughTransactor(),
			Teams:        repository.NewDynamoTeamRepository(client, cfg.Dynamo.TeamsTable),
			Submissions:  repository.NewDynamoSubmissionRepository(client, cfg.Dynamo.SubmissionsTable),
			Feedback:     repository.NewDynamoFeedbackRepository(client, cfg.Dynamo.FeedbackTable),
			Participants: repository.NewDynamoParticipantRepository(client, cfg.Dynamo.ParticipantsTable),
			Health: api.PingCheck("dynamodb", func(ctx context.Context) error {
				_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(cfg.Dynamo.TeamsTable)})
				return err
			}),
			Close: func() {},
		}, nil
	}

	return nil, errors.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// NewObjectStore builds the S3 store. With a custom endpoint and no public
// base URL, object URLs are served path-style from the endpoint.
func NewObjectStore(cfg *config.Config, awsCfg aws.Config) *storage.S3Store {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3.UsePathStyle
		if cfg.AWS.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
		}
	})

	baseURL := cfg.S3.PublicBaseURL
	if baseURL == "" && cfg.AWS.Endpoint != "" {
		baseURL = strings.TrimRight(cfg.AWS.Endpoint, "/") + "/" + cfg.S3.Bucket
	}
	return storage.NewS3Store(client, cfg.S3.Bucket, cfg.AWS.Region, baseURL)
}
