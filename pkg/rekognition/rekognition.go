package rekognition

import (
	"ImageAnnotator/internal/entity"
	"ImageAnnotator/pkg/detector"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/aws/aws-sdk-go/service/rekognition/rekognitioniface"
	"golang.org/x/net/context"
)

var throttlingCodes = map[string]bool{
	rekognition.ErrCodeProvisionedThroughputExceededException: true,
	rekognition.ErrCodeThrottlingException:                    true,
}

type rekognitionClient struct {
	client rekognitioniface.RekognitionAPI
}

func New(sess *session.Session) detector.Labeler {
	return NewWithClient(rekognition.New(sess))
}

func NewWithClient(client rekognitioniface.RekognitionAPI) detector.Labeler {
	return &rekognitionClient{client: client}
}

func (r *rekognitionClient) DetectLabels(ctx context.Context, bucket, key string, maxLabels int64) ([]entity.DetectedLabel, error) {
	out, err := r.client.DetectLabelsWithContext(ctx, &rekognition.DetectLabelsInput{
		Image: &rekognition.Image{
			S3Object: &rekognition.S3Object{
				Bucket: aws.String(bucket),
				Name:   aws.String(key),
			},
		},
		MaxLabels: aws.Int64(maxLabels),
	})
	if err != nil {
		return nil, classify(err)
	}

	labels := make([]entity.DetectedLabel, 0, len(out.Labels))
	for _, l := range out.Labels {
		if l == nil {
			continue
		}

		label := entity.DetectedLabel{
			Name:       aws.StringValue(l.Name),
			Confidence: aws.Float64Value(l.Confidence),
		}
		for _, inst := range l.Instances {
			if inst == nil || inst.BoundingBox == nil {
				continue
			}
			label.Instances = append(label.Instances, entity.DetectedInstance{
				BoundingBox: &entity.BoundingBox{
					Left:   aws.Float64Value(inst.BoundingBox.Left),
					Top:    aws.Float64Value(inst.BoundingBox.Top),
					Width:  aws.Float64Value(inst.BoundingBox.Width),
					Height: aws.Float64Value(inst.BoundingBox.Height),
				},
			})
		}
		labels = append(labels, label)
	}

	return labels, nil
}

func classify(err error) error {
	var awsErr awserr.Error
	if errors.As(err, &awsErr) && throttlingCodes[awsErr.Code()] {
		return fmt.Errorf("%w: %s: %s", detector.ErrThrottled, awsErr.Code(), awsErr.Message())
	}
	return err
}
