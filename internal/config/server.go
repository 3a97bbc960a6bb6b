package config

import (
	"ImageAnnotator/database/postgres"
	annotationHandler "ImageAnnotator/internal/api/annotation/handler"
	annotationRepository "ImageAnnotator/internal/api/annotation/repository"
	annotationService "ImageAnnotator/internal/api/annotation/service"
	"ImageAnnotator/internal/middleware"
	"ImageAnnotator/pkg/awsclient"
	"ImageAnnotator/pkg/detector"
	"ImageAnnotator/pkg/dynamodb"
	"ImageAnnotator/pkg/gemini"
	"ImageAnnotator/pkg/handlerUtil"
	"ImageAnnotator/pkg/rekognition"
	"ImageAnnotator/pkg/render"
	"ImageAnnotator/pkg/s3"
	"ImageAnnotator/pkg/sns"
	"ImageAnnotator/pkg/utils"
	"fmt"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"os"
	"strconv"
	"time"
)

const (
	DetectorRekognition = "rekognition"
	DetectorGemini      = "gemini"

	MetadataDynamoDB = "dynamodb"
	MetadataPostgres = "postgres"

	DefaultFontKey = "fonts/Roboto_Condensed-Black.ttf"
)

type ServerOption func(*Server) error

type Server struct {
	engine       *fiber.App
	db           *sqlx.DB
	log          *logrus.Logger
	middleware   middleware.Middleware
	validator    *validator.Validate
	utils        utils.IUtils
	handlers     []handler
	awsSession   *session.Session
	s3Client     s3.ItfS3
	geminiClient gemini.IGemini
	detector     detector.IDetector
	metadata     annotationService.MetadataStore
	notifier     annotationService.Notifier
	renderer     render.IRenderer
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		if s.utils == nil {
			s.utils = utils.New()
		}
		s.middleware = middleware.New(s.log, s.utils)
		return nil
	}
}

func WithAWSSession() ServerOption {
	return func(s *Server) error {
		sess, err := awsclient.NewSession()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to create AWS session: %v", err)
			}
			return fmt.Errorf("failed to create AWS session: %w", err)
		}
		s.awsSession = sess
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		if s.awsSession == nil {
			return fmt.Errorf("AWS session must be initialized before S3 client")
		}
		s.s3Client = s3.New(s.awsSession)
		return nil
	}
}

// WithDetector picks the label detector from DETECTOR_PROVIDER. Both
// providers share the throttling retry policy.
func WithDetector() ServerOption {
	return func(s *Server) error {
		provider := os.Getenv("DETECTOR_PROVIDER")
		if provider == "" {
			provider = DetectorRekognition
		}

		var labeler detector.Labeler
		switch provider {
		case DetectorRekognition:
			if s.awsSession == nil {
				return fmt.Errorf("AWS session must be initialized before Rekognition")
			}
			labeler = rekognition.New(s.awsSession)
		case DetectorGemini:
			if s.s3Client == nil {
				return fmt.Errorf("S3 client must be initialized before Gemini detector")
			}
			client, err := gemini.NewGeminiClient()
			if err != nil {
				if s.log != nil {
					s.log.Errorf("Failed to create Gemini client: %v", err)
				}
				return fmt.Errorf("failed to create Gemini client: %w", err)
			}
			s.geminiClient = client
			labeler = gemini.NewLabeler(client, s.s3Client)
		default:
			return fmt.Errorf("unknown detector provider %q", provider)
		}

		s.detector = detector.New(labeler, s.log)
		return nil
	}
}

func WithMetadataStore() ServerOption {
	return func(s *Server) error {
		driver := os.Getenv("METADATA_DRIVER")
		if driver == "" {
			driver = MetadataDynamoDB
		}

		switch driver {
		case MetadataDynamoDB:
			if s.awsSession == nil {
				return fmt.Errorf("AWS session must be initialized before DynamoDB")
			}
			s.metadata = dynamodb.New(s.awsSession, s.log)
		case MetadataPostgres:
			db, err := postgres.New()
			if err != nil {
				if s.log != nil {
					s.log.Errorf("Failed to connect to database: %v", err)
				}
				return fmt.Errorf("failed to create database connection: %w", err)
			}
			s.db = db
			s.metadata = annotationRepository.NewMetadataStore(annotationRepository.New(db, s.log), s.log)
		default:
			return fmt.Errorf("unknown metadata driver %q", driver)
		}

		return nil
	}
}

func WithNotifier() ServerOption {
	return func(s *Server) error {
		if s.awsSession == nil {
			return fmt.Errorf("AWS session must be initialized before SNS")
		}
		s.notifier = sns.New(s.awsSession)
		return nil
	}
}

// WithRenderer loads the label font from the bucket, by FONT_KEY or the
// default key. Without an S3 client labels are drawn with the built-in
// bitmap face.
func WithRenderer() ServerOption {
	return func(s *Server) error {
		if s.s3Client == nil {
			s.renderer = render.New(nil, s.log)
			return nil
		}

		fonts := render.NewFontLoader(s.s3Client, fontKeyFromEnv(), os.Getenv("FONT_SCRATCH_DIR"), s.log)
		s.renderer = render.New(fonts, s.log)
		return nil
	}
}

func fontKeyFromEnv() string {
	if key := os.Getenv("FONT_KEY"); key != "" {
		return key
	}
	return DefaultFontKey
}

func (s *Server) RegisterHandler() error {
	cfg, err := serviceConfigFromEnv()
	if err != nil {
		return err
	}

	if s.validator == nil {
		s.validator = NewValidator()
	}
	if s.middleware == nil {
		return fmt.Errorf("middleware must be initialized before handlers")
	}

	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	annotationServices := annotationService.NewAnnotationService(
		s.log,
		cfg,
		s.s3Client,
		s.s3Client,
		s.detector,
		s.metadata,
		s.notifier,
		s.renderer,
		s.utils,
	)
	annotationHandlers := annotationHandler.New(s.log, s.validator, s.middleware, annotationServices)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, annotationHandlers)
	return nil
}

func serviceConfigFromEnv() (annotationService.Config, error) {
	cfg := annotationService.Config{
		ProcessedPrefix: os.Getenv("PROCESSED_PREFIX"),
	}

	if raw := os.Getenv("PRESIGN_EXPIRY_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return annotationService.Config{}, fmt.Errorf("invalid PRESIGN_EXPIRY_SECONDS %q", raw)
		}
		cfg.PresignExpiry = time.Duration(seconds) * time.Second
	}

	return cfg, nil
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops accepting requests, waits for in-flight ones and then
// releases the clients the server opened.
func (s *Server) Shutdown(timeout time.Duration) error {
	err := s.engine.ShutdownWithTimeout(timeout)

	if s.geminiClient != nil {
		if closeErr := s.geminiClient.Close(); closeErr != nil {
			s.log.Warnf("Failed to close Gemini client: %v", closeErr)
		}
	}
	if s.db != nil {
		if closeErr := s.db.Close(); closeErr != nil {
			s.log.Warnf("Failed to close database: %v", closeErr)
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return handlerUtil.New(s.log).HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
