package annotationService

import (
	"ImageAnnotator/internal/api/annotation"
	"ImageAnnotator/internal/entity"
	contextPkg "ImageAnnotator/pkg/context"
	"ImageAnnotator/pkg/log"
	"ImageAnnotator/pkg/response"
	"errors"
	"fmt"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"net/http"
)

const processedContentType = "image/jpeg"

var prettyJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// ProcessImage runs one request through the pipeline. Every failure is
// turned into a failure result; nothing is rolled back.
func (s *annotationService) ProcessImage(ctx context.Context, req annotation.ProcessImageRequest) annotation.ProcessingResult {
	requestID := contextPkg.GetRequestID(ctx)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"filename":   req.Filename,
		"size":       len(req.File),
	}).Info("Image processing request received")

	result, err := s.process(ctx, req)
	if err != nil {
		stage := annotation.StageFailed
		var stageErr *annotation.StageError
		if errors.As(err, &stageErr) {
			stage = stageErr.Stage
		}

		log.ErrorWithTraceID(s.log, log.Fields{
			"request_id": requestID,
			"filename":   req.Filename,
			"stage":      stage,
			"kind":       annotation.KindOf(err).Error(),
			"class_code": response.CodeOf(annotation.KindOf(err), http.StatusInternalServerError),
			"error":      err.Error(),
		}, "Image processing failed")

		return annotation.NewFailureResult(err)
	}

	return result
}

func (s *annotationService) process(ctx context.Context, req annotation.ProcessImageRequest) (annotation.ProcessingResult, error) {
	requestID := contextPkg.GetRequestID(ctx)
	fail := func(stage annotation.Stage, kind error, err error) (annotation.ProcessingResult, error) {
		return annotation.ProcessingResult{}, annotation.NewStageError(stage, kind, err)
	}
	checkpoint := func(stage annotation.Stage) error {
		if err := ctx.Err(); err != nil {
			return annotation.NewStageError(stage, annotation.ErrUnknown, err)
		}
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"filename":   req.Filename,
			"stage":      stage,
		}).Debug("Pipeline stage reached")
		return nil
	}

	// Received -> Stored
	if req.Filename == "" {
		return fail(annotation.StageReceived, annotation.ErrValidation, fmt.Errorf("filename is required"))
	}
	data, err := s.utils.DecodeBase64Image(req.File)
	if err != nil {
		return fail(annotation.StageReceived, annotation.ErrValidation, err)
	}
	source, contentType, err := s.utils.DecodeImage(data)
	if err != nil {
		return fail(annotation.StageReceived, annotation.ErrValidation, err)
	}
	asset := entity.ImageAsset{Key: req.Filename, Data: data, ContentType: contentType}

	if err := s.blobs.PutObject(ctx, asset.Key, asset.Data, asset.ContentType); err != nil {
		return fail(annotation.StageReceived, annotation.ErrPersistence, fmt.Errorf("upload original: %w", err))
	}
	if err := checkpoint(annotation.StageStored); err != nil {
		return annotation.ProcessingResult{}, err
	}

	// Stored -> Detected
	detected, err := s.detector.Detect(ctx, s.blobs.BucketName(), asset.Key)
	if err != nil {
		return fail(annotation.StageStored, annotation.ErrDetection, err)
	}
	if err := checkpoint(annotation.StageDetected); err != nil {
		return annotation.ProcessingResult{}, err
	}

	// Detected -> Normalized
	stored, labels, err := normalizeLabels(detected)
	if err != nil {
		return fail(annotation.StageDetected, annotation.ErrDetection, err)
	}
	if err := checkpoint(annotation.StageNormalized); err != nil {
		return annotation.ProcessingResult{}, err
	}

	// Normalized -> Rendered
	annotated := s.renderer.Render(ctx, source, labels)
	encoded, err := s.utils.EncodeJPEG(annotated)
	if err != nil {
		return fail(annotation.StageNormalized, annotation.ErrUnknown, fmt.Errorf("encode annotated image: %w", err))
	}
	if err := checkpoint(annotation.StageRendered); err != nil {
		return annotation.ProcessingResult{}, err
	}

	// Rendered -> Persisted
	processedKey := s.cfg.ProcessedPrefix + asset.Key
	if err := s.blobs.PutObject(ctx, processedKey, encoded, processedContentType); err != nil {
		return fail(annotation.StageRendered, annotation.ErrPersistence, fmt.Errorf("upload annotated image: %w", err))
	}

	record := entity.MetadataRecord{
		ImageKey:     asset.Key,
		ProcessedKey: processedKey,
		Labels:       stored,
		ProcessedAt:  s.now().UTC(),
	}
	if err := s.metadata.UpsertMetadata(ctx, record); err != nil {
		return fail(annotation.StageRendered, annotation.ErrPersistence, fmt.Errorf("upsert metadata: %w", err))
	}
	if err := checkpoint(annotation.StagePersisted); err != nil {
		return annotation.ProcessingResult{}, err
	}

	// Persisted -> UrlIssued
	url, err := s.signer.PresignUrl(ctx, processedKey, s.cfg.PresignExpiry)
	if err != nil {
		return fail(annotation.StagePersisted, annotation.ErrSigning, err)
	}
	result := annotation.NewSuccessResult(url, labels)
	if err := checkpoint(annotation.StageURLIssued); err != nil {
		return annotation.ProcessingResult{}, err
	}

	// UrlIssued -> Notified, best effort
	s.notify(ctx, asset.Key, result)

	s.log.WithFields(logrus.Fields{
		"request_id":    requestID,
		"filename":      asset.Key,
		"processed_key": processedKey,
		"labels":        len(labels),
	}).Info("Image processing completed")

	return result, nil
}

func (s *annotationService) notify(ctx context.Context, filename string, result annotation.ProcessingResult) {
	requestID := contextPkg.GetRequestID(ctx)

	body, err := prettyJSON.MarshalIndent(result.Payload(), "", "    ")
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to marshal notification body")
		return
	}

	subject := fmt.Sprintf("Image Processing Completed for %s", filename)
	messageID, err := s.notifier.Publish(ctx, subject, "Response body:\n"+string(body))
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"filename":   filename,
			"error":      err.Error(),
		}).Warn("Failed to publish completion notification")
		return
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"message_id": messageID,
	}).Info("Completion notification published")
}
