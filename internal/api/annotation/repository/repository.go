package annotationRepository

import (
	"ImageAnnotator/internal/entity"
	"database/sql"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Rebind(query string) string
}

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient() Client
}

// NewClient runs statements directly on the pool; every write here is a
// single statement.
func (r *repository) NewClient() Client {
	return Client{
		Metadata: &metadataRepository{q: r.DB, log: r.log},
	}
}

type Client struct {
	Metadata interface {
		UpsertMetadata(ctx context.Context, record entity.MetadataRecord) (bool, error)
	}
}

type metadataRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}
