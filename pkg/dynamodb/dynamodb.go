package dynamodb

import (
	"ImageAnnotator/internal/entity"
	contextPkg "ImageAnnotator/pkg/context"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"os"
)

const (
	DefaultTableName = "ImageMetadata"

	// fixed width so timestamps compare correctly as strings
	timestampLayout = "2006-01-02T15:04:05.000000000Z"

	// a record only replaces one that is not newer than itself; rows written
	// without processed_at are always replaced
	upsertCondition = "attribute_not_exists(image_key) OR attribute_not_exists(processed_at) OR processed_at <= :processed_at"
)

type ItfDynamo interface {
	UpsertMetadata(ctx context.Context, record entity.MetadataRecord) error
}

type dynamoClient struct {
	client    dynamodbiface.DynamoDBAPI
	tableName string
	log       *logrus.Logger
}

func New(sess *session.Session, log *logrus.Logger) ItfDynamo {
	tableName := os.Getenv("AWS_DYNAMODB_TABLE")
	if tableName == "" {
		tableName = DefaultTableName
	}
	return NewWithClient(dynamodb.New(sess), tableName, log)
}

func NewWithClient(client dynamodbiface.DynamoDBAPI, tableName string, log *logrus.Logger) ItfDynamo {
	return &dynamoClient{
		client:    client,
		tableName: tableName,
		log:       log,
	}
}

// UpsertMetadata writes the record keyed by image key. When a newer record
// for the same key is already stored the write is dropped and no error is
// returned.
func (d *dynamoClient) UpsertMetadata(ctx context.Context, record entity.MetadataRecord) error {
	processedAt := record.ProcessedAt.UTC().Format(timestampLayout)

	_, err := d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.tableName),
		Item:                marshalRecord(record, processedAt),
		ConditionExpression: aws.String(upsertCondition),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":processed_at": {S: aws.String(processedAt)},
		},
	})
	if err != nil {
		var awsErr awserr.Error
		if errors.As(err, &awsErr) && awsErr.Code() == dynamodb.ErrCodeConditionalCheckFailedException {
			d.log.WithFields(logrus.Fields{
				"request_id":   contextPkg.GetRequestID(ctx),
				"image_key":    record.ImageKey,
				"processed_at": processedAt,
			}).Warn("Newer metadata record already stored, keeping it")
			return nil
		}
		return fmt.Errorf("failed to put metadata for %s: %w", record.ImageKey, err)
	}

	return nil
}

func marshalRecord(record entity.MetadataRecord, processedAt string) map[string]*dynamodb.AttributeValue {
	labels := make([]*dynamodb.AttributeValue, 0, len(record.Labels))
	for _, l := range record.Labels {
		labels = append(labels, &dynamodb.AttributeValue{M: marshalLabel(l)})
	}

	return map[string]*dynamodb.AttributeValue{
		"image_key":     {S: aws.String(record.ImageKey)},
		"processed_key": {S: aws.String(record.ProcessedKey)},
		"processed_at":  {S: aws.String(processedAt)},
		"labels":        {L: labels},
	}
}

// marshalLabel writes numbers as their exact decimal text. A label without
// a located instance keeps an empty BoundingBox map.
func marshalLabel(l entity.StorageLabel) map[string]*dynamodb.AttributeValue {
	box := map[string]*dynamodb.AttributeValue{}
	if l.BoundingBox != nil {
		box["Left"] = number(l.BoundingBox.Left)
		box["Top"] = number(l.BoundingBox.Top)
		box["Width"] = number(l.BoundingBox.Width)
		box["Height"] = number(l.BoundingBox.Height)
	}

	return map[string]*dynamodb.AttributeValue{
		"Name":        {S: aws.String(l.Name)},
		"Confidence":  number(l.Confidence),
		"BoundingBox": {M: box},
	}
}

func number(d decimal.Decimal) *dynamodb.AttributeValue {
	return &dynamodb.AttributeValue{N: aws.String(d.String())}
}
