package annotationService

import (
	"ImageAnnotator/internal/api/annotation"
	"ImageAnnotator/internal/entity"
	"ImageAnnotator/pkg/render"
	"ImageAnnotator/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"time"
)

const (
	DefaultProcessedPrefix = "processed/"
	DefaultPresignExpiry   = 3600 * time.Second
)

type BlobStore interface {
	BucketName() string
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
}

type Signer interface {
	PresignUrl(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type Detector interface {
	Detect(ctx context.Context, bucket, key string) ([]entity.DetectedLabel, error)
}

type MetadataStore interface {
	UpsertMetadata(ctx context.Context, record entity.MetadataRecord) error
}

type Notifier interface {
	Publish(ctx context.Context, subject string, message string) (string, error)
}

type IAnnotationService interface {
	ProcessImage(ctx context.Context, req annotation.ProcessImageRequest) annotation.ProcessingResult
}

type Config struct {
	ProcessedPrefix string
	PresignExpiry   time.Duration
}

type annotationService struct {
	log      *logrus.Logger
	cfg      Config
	blobs    BlobStore
	signer   Signer
	detector Detector
	metadata MetadataStore
	notifier Notifier
	renderer render.IRenderer
	utils    utils.IUtils
	now      func() time.Time
}

func NewAnnotationService(
	log *logrus.Logger,
	cfg Config,
	blobs BlobStore,
	signer Signer,
	detector Detector,
	metadata MetadataStore,
	notifier Notifier,
	renderer render.IRenderer,
	utils utils.IUtils,
) IAnnotationService {
	if cfg.ProcessedPrefix == "" {
		cfg.ProcessedPrefix = DefaultProcessedPrefix
	}
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = DefaultPresignExpiry
	}

	return &annotationService{
		log:      log,
		cfg:      cfg,
		blobs:    blobs,
		signer:   signer,
		detector: detector,
		metadata: metadata,
		notifier: notifier,
		renderer: renderer,
		utils:    utils,
		now:      time.Now,
	}
}
