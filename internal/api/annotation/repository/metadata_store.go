package annotationRepository

import (
	"ImageAnnotator/internal/entity"
	contextPkg "ImageAnnotator/pkg/context"
	"fmt"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// MetadataStore persists processing results in Postgres for deployments
// that run without DynamoDB.
type MetadataStore struct {
	repo Repository
	log  *logrus.Logger
}

func NewMetadataStore(repo Repository, log *logrus.Logger) *MetadataStore {
	return &MetadataStore{
		repo: repo,
		log:  log,
	}
}

func (s *MetadataStore) UpsertMetadata(ctx context.Context, record entity.MetadataRecord) error {
	applied, err := s.repo.NewClient().Metadata.UpsertMetadata(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to upsert metadata for %s: %w", record.ImageKey, err)
	}

	if !applied {
		s.log.WithFields(logrus.Fields{
			"request_id":   contextPkg.GetRequestID(ctx),
			"image_key":    record.ImageKey,
			"processed_at": record.ProcessedAt,
		}).Warn("Newer metadata record already stored, keeping it")
	}

	return nil
}
