package rekognition

import (
	"ImageAnnotator/pkg/detector"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/aws/aws-sdk-go/service/rekognition/rekognitioniface"
	"golang.org/x/net/context"
)

type fakeRekognition struct {
	rekognitioniface.RekognitionAPI
	input *rekognition.DetectLabelsInput
	out   *rekognition.DetectLabelsOutput
	err   error
}

func (f *fakeRekognition) DetectLabelsWithContext(ctx aws.Context, in *rekognition.DetectLabelsInput, opts ...request.Option) (*rekognition.DetectLabelsOutput, error) {
	f.input = in
	return f.out, f.err
}

func TestDetectLabelsMapsOutput(t *testing.T) {
	fake := &fakeRekognition{out: &rekognition.DetectLabelsOutput{
		Labels: []*rekognition.Label{
			{
				Name:       aws.String("Dog"),
				Confidence: aws.Float64(98.4),
				Instances: []*rekognition.Instance{
					{BoundingBox: &rekognition.BoundingBox{
						Left: aws.Float64(0), Top: aws.Float64(0), Width: aws.Float64(0.5), Height: aws.Float64(0.5),
					}},
					{BoundingBox: nil},
				},
			},
			{Name: aws.String("Outdoors"), Confidence: aws.Float64(91.2)},
		},
	}}

	labels, err := NewWithClient(fake).DetectLabels(context.Background(), "bucket", "a.jpg", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := aws.StringValue(fake.input.Image.S3Object.Bucket); got != "bucket" {
		t.Errorf("bucket = %q", got)
	}
	if got := aws.StringValue(fake.input.Image.S3Object.Name); got != "a.jpg" {
		t.Errorf("name = %q", got)
	}
	if got := aws.Int64Value(fake.input.MaxLabels); got != 10 {
		t.Errorf("max labels = %d", got)
	}

	if len(labels) != 2 {
		t.Fatalf("labels = %+v", labels)
	}
	if labels[0].Name != "Dog" || labels[0].Confidence != 98.4 || len(labels[0].Instances) != 1 {
		t.Errorf("labels[0] = %+v", labels[0])
	}
	if box := labels[0].Instances[0].BoundingBox; box.Width != 0.5 || box.Height != 0.5 {
		t.Errorf("box = %+v", box)
	}
	if labels[1].Name != "Outdoors" || len(labels[1].Instances) != 0 {
		t.Errorf("labels[1] = %+v", labels[1])
	}
}

func TestDetectLabelsClassifiesErrors(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantThrottled bool
	}{
		{
			name:          "provisioned throughput",
			err:           awserr.New(rekognition.ErrCodeProvisionedThroughputExceededException, "slow down", nil),
			wantThrottled: true,
		},
		{
			name:          "throttling",
			err:           awserr.New(rekognition.ErrCodeThrottlingException, "rate exceeded", nil),
			wantThrottled: true,
		},
		{
			name: "invalid image",
			err:  awserr.New(rekognition.ErrCodeInvalidImageFormatException, "bad image", nil),
		},
		{
			name: "plain error",
			err:  errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWithClient(&fakeRekognition{err: tt.err}).DetectLabels(context.Background(), "b", "k", 10)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, detector.ErrThrottled); got != tt.wantThrottled {
				t.Errorf("errors.Is(err, ErrThrottled) = %v, want %v (err: %v)", got, tt.wantThrottled, err)
			}
		})
	}
}
