package sns

import (
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"golang.org/x/net/context"
)

type fakeSNS struct {
	snsiface.SNSAPI
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) PublishWithContext(ctx aws.Context, in *sns.PublishInput, opts ...request.Option) (*sns.PublishOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-42")}, nil
}

func TestPublish(t *testing.T) {
	fake := &fakeSNS{}
	client := NewWithClient(fake, "arn:aws:sns:us-east-1:000000000000:ImageProcessingTopic")

	id, err := client.Publish(context.Background(), "Image Processing Completed for a.jpg", "Response body:\n{}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "msg-42" {
		t.Errorf("message id = %q", id)
	}
	if aws.StringValue(fake.input.TopicArn) != "arn:aws:sns:us-east-1:000000000000:ImageProcessingTopic" {
		t.Errorf("topic = %q", aws.StringValue(fake.input.TopicArn))
	}
	if aws.StringValue(fake.input.Subject) != "Image Processing Completed for a.jpg" {
		t.Errorf("subject = %q", aws.StringValue(fake.input.Subject))
	}
	if aws.StringValue(fake.input.Message) != "Response body:\n{}" {
		t.Errorf("message = %q", aws.StringValue(fake.input.Message))
	}
}

func TestPublishTruncatesLongSubject(t *testing.T) {
	fake := &fakeSNS{}
	client := NewWithClient(fake, "arn:topic")

	subject := "Image Processing Completed for " + strings.Repeat("é", 200)
	if _, err := client.Publish(context.Background(), subject, "body"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := []rune(aws.StringValue(fake.input.Subject))
	if len(got) != MaxSubjectLength {
		t.Errorf("subject length = %d runes, want %d", len(got), MaxSubjectLength)
	}
}

func TestPublishErrors(t *testing.T) {
	if _, err := NewWithClient(&fakeSNS{}, "").Publish(context.Background(), "s", "m"); err == nil {
		t.Error("expected error without topic arn")
	}

	cause := errors.New("AuthorizationError")
	_, err := NewWithClient(&fakeSNS{err: cause}, "arn:topic").Publish(context.Background(), "s", "m")
	if !errors.Is(err, cause) {
		t.Errorf("error = %v, want wrapped %v", err, cause)
	}
}
