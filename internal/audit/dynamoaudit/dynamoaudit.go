package dynamoaudit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/hospedagem/pkg/booking"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
)

// DefaultTable is the audit table name used when none is configured.
const DefaultTable = "hospedagem_operations"

// ErrMissingTable is returned when the recorder has no table name.
var ErrMissingTable = errors.New("dynamodb audit table is required")

// PutItemAPI is the slice of *dynamodb.Client the recorder needs.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Table requirements:
//   - PK: id (string)
type auditItem struct {
	ID                string `dynamodbav:"id"`
	Operation         string `dynamodbav:"operation"`
	Status            string `dynamodbav:"status"`
	ReservationID     string `dynamodbav:"reservation_id,omitempty"`
	Room              string `dynamodbav:"room,omitempty"`
	Operator          string `dynamodbav:"operator,omitempty"`
	ReservationStatus string `dynamodbav:"reservation_status,omitempty"`
	StayStatus        string `dynamodbav:"stay_status,omitempty"`
	PointsCredited    int64  `dynamodbav:"points_credited"`
	Replayed          bool   `dynamodbav:"replayed"`
	Error             string `dynamodbav:"error,omitempty"`
	ErrorKind         string `dynamodbav:"error_kind,omitempty"`
	OccurredAt        string `dynamodbav:"occurred_at"`
}

// Recorder appends every booking operation to a DynamoDB table. It is an
// audit side channel: write failures go to onError and never reach callers.
type Recorder struct {
	client    PutItemAPI
	tableName string
	onError   func(error)
	newID     func() string
}

// New returns a Recorder writing to tableName. onError may be nil.
func New(client PutItemAPI, tableName string, onError func(error)) (*Recorder, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: dynamodb client is nil", booking.ErrInvalidServiceConfig)
	}
	trimmed := strings.TrimSpace(tableName)
	if trimmed == "" {
		return nil, ErrMissingTable
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &Recorder{client: client, tableName: trimmed, onError: onError, newID: uuid.NewString}, nil
}

// LogOperation implements booking.OperationLogger.
func (recorder *Recorder) LogOperation(ctx context.Context, entry booking.OperationLog) {
	if err := recorder.Record(ctx, entry); err != nil {
		recorder.onError(err)
	}
}

// Record writes one audit item.
func (recorder *Recorder) Record(ctx context.Context, entry booking.OperationLog) error {
	item := auditItem{
		ID:                recorder.newID(),
		Operation:         entry.Operation,
		Status:            entry.Status,
		ReservationID:     entry.ReservationID,
		Room:              entry.Room,
		Operator:          entry.Operator,
		ReservationStatus: entry.ReservationStatus.String(),
		StayStatus:        entry.StayStatus.String(),
		PointsCredited:    entry.PointsCredited,
		Replayed:          entry.Replayed,
		OccurredAt:        entry.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if entry.Error != nil {
		item.Error = entry.Error.Error()
		item.ErrorKind = string(booking.KindOf(entry.Error))
	}
	attributes, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal audit item: %w", err)
	}
	_, err = recorder.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(recorder.tableName),
		Item:                attributes,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return fmt.Errorf("put audit item %s: %w", entry.Operation, err)
	}
	return nil
}

// ClientConfig selects the DynamoDB endpoint. Static credentials are only
// used when both keys are set, which is what local DynamoDB needs.
type ClientConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewClient loads the AWS config and returns a DynamoDB client.
func NewClient(ctx context.Context, clientConfig ClientConfig) (*dynamodb.Client, error) {
	loadOptions := []func(*config.LoadOptions) error{}
	if clientConfig.Region != "" {
		loadOptions = append(loadOptions, config.WithRegion(clientConfig.Region))
	}
	if clientConfig.AccessKeyID != "" && clientConfig.SecretAccessKey != "" {
		loadOptions = append(loadOptions, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(clientConfig.AccessKeyID, clientConfig.SecretAccessKey, ""),
		))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsConfig, func(options *dynamodb.Options) {
		if clientConfig.Endpoint != "" {
			options.BaseEndpoint = aws.String(clientConfig.Endpoint)
		}
	}), nil
}
