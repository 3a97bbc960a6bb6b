package annotationRepository

import (
	"ImageAnnotator/internal/entity"
	contextPkg "ImageAnnotator/pkg/context"
	"encoding/json"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// LabelDB is the JSONB form of a stored label. Numbers keep their exact
// decimal text and a label without a location has an empty BoundingBox.
type LabelDB struct {
	Name        string                 `json:"Name"`
	Confidence  json.Number            `json:"Confidence"`
	BoundingBox map[string]json.Number `json:"BoundingBox"`
}

func toLabelsDB(labels []entity.StorageLabel) []LabelDB {
	out := make([]LabelDB, 0, len(labels))
	for _, l := range labels {
		box := map[string]json.Number{}
		if l.BoundingBox != nil {
			box["Left"] = number(l.BoundingBox.Left)
			box["Top"] = number(l.BoundingBox.Top)
			box["Width"] = number(l.BoundingBox.Width)
			box["Height"] = number(l.BoundingBox.Height)
		}

		out = append(out, LabelDB{
			Name:        l.Name,
			Confidence:  number(l.Confidence),
			BoundingBox: box,
		})
	}
	return out
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// UpsertMetadata reports whether the row was written. A stored row with a
// later processed_at is left alone and reported as not applied.
func (r *metadataRepository) UpsertMetadata(ctx context.Context, record entity.MetadataRecord) (bool, error) {
	requestID := contextPkg.GetRequestID(ctx)

	labels, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(toLabelsDB(record.Labels))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to encode labels for UpsertMetadata")
		return false, err
	}

	argsKV := map[string]interface{}{
		"image_key":     record.ImageKey,
		"processed_key": record.ProcessedKey,
		"labels":        string(labels),
		"processed_at":  record.ProcessedAt.UTC(),
	}

	query, args, err := sqlx.Named(queryUpsertMetadata, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for UpsertMetadata")
		return false, err
	}
	query = r.q.Rebind(query)

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"image_key":  record.ImageKey,
			"error":      err.Error(),
		}).Error("Database error when upserting image metadata")
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
