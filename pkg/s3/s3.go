package s3

import (
	"bytes"
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"golang.org/x/net/context"
	"io"
	"os"
	"time"
)

type ItfS3 interface {
	BucketName() string
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	DownloadFile(ctx context.Context, key string, path string) error
	PresignUrl(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type s3Client struct {
	client     s3iface.S3API
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
	bucketName string
}

func New(sess *session.Session) ItfS3 {
	return NewWithClient(s3.New(sess), os.Getenv("AWS_BUCKET_NAME"))
}

func NewWithClient(client s3iface.S3API, bucketName string) ItfS3 {
	return &s3Client{
		client:     client,
		uploader:   s3manager.NewUploaderWithClient(client),
		downloader: s3manager.NewDownloaderWithClient(client),
		bucketName: bucketName,
	}
}

func (s *s3Client) BucketName() string {
	return s.bucketName
}

func (s *s3Client) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", s.bucketName, key, err)
	}

	return nil
}

func (s *s3Client) GetObject(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", s.bucketName, key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

// DownloadFile writes the object to path, replacing any existing file.
func (s *s3Client) DownloadFile(ctx context.Context, key string, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	_, err = s.downloader.DownloadWithContext(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	closeErr := file.Close()
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to download s3://%s/%s: %w", s.bucketName, key, err)
	}

	return closeErr
}

func (s *s3Client) PresignUrl(ctx context.Context, key string, expiry time.Duration) (string, error) {
	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("file does not exist: %w", err)
	}

	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	urlStr, err := req.Presign(expiry)
	if err != nil {
		return "", err
	}

	return urlStr, nil
}
