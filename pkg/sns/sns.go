package sns

import (
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"golang.org/x/net/context"
	"os"
)

// MaxSubjectLength is the longest subject SNS accepts for email endpoints.
const MaxSubjectLength = 100

type ItfSns interface {
	Publish(ctx context.Context, subject string, message string) (string, error)
}

type snsClient struct {
	client   snsiface.SNSAPI
	topicArn string
}

func New(sess *session.Session) ItfSns {
	return NewWithClient(sns.New(sess), os.Getenv("AWS_SNS_TOPIC_ARN"))
}

func NewWithClient(client snsiface.SNSAPI, topicArn string) ItfSns {
	return &snsClient{
		client:   client,
		topicArn: topicArn,
	}
}

func (s *snsClient) Publish(ctx context.Context, subject string, message string) (string, error) {
	if s.topicArn == "" {
		return "", fmt.Errorf("sns topic arn is not configured")
	}

	out, err := s.client.PublishWithContext(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicArn),
		Subject:  aws.String(truncateSubject(subject)),
		Message:  aws.String(message),
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish to %s: %w", s.topicArn, err)
	}

	return aws.StringValue(out.MessageId), nil
}

func truncateSubject(subject string) string {
	runes := []rune(subject)
	if len(runes) <= MaxSubjectLength {
		return subject
	}
	return string(runes[:MaxSubjectLength])
}
