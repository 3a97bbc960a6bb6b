package annotationRepository

import (
	"ImageAnnotator/internal/entity"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type fakeResult struct {
	affected int64
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, nil }

type fakeExecutor struct {
	query    string
	args     []interface{}
	affected int64
	err      error
}

func (f *fakeExecutor) Rebind(query string) string {
	return sqlx.Rebind(sqlx.DOLLAR, query)
}

func (f *fakeExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	f.query, f.args = query, args
	if f.err != nil {
		return nil, f.err
	}
	return fakeResult{affected: f.affected}, nil
}

type fakeRepository struct {
	client Client
}

func (f fakeRepository) NewClient() Client {
	return f.client
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func sampleRecord() entity.MetadataRecord {
	return entity.MetadataRecord{
		ImageKey:     "a.jpg",
		ProcessedKey: "processed/a.jpg",
		ProcessedAt:  time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
		Labels: []entity.StorageLabel{
			{
				Name:       "Dog",
				Confidence: decimal.RequireFromString("98.4"),
				BoundingBox: &entity.StorageBoundingBox{
					Left:   decimal.RequireFromString("0"),
					Top:    decimal.RequireFromString("0.30000000000000004"),
					Width:  decimal.RequireFromString("0.5"),
					Height: decimal.RequireFromString("0.5"),
				},
			},
			{Name: "Outdoors", Confidence: decimal.RequireFromString("91.25")},
		},
	}
}

func TestUpsertMetadataQuery(t *testing.T) {
	exec := &fakeExecutor{affected: 1}
	repo := &metadataRepository{q: exec, log: quietLogger()}

	applied, err := repo.UpsertMetadata(context.Background(), sampleRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied {
		t.Error("applied = false, want true")
	}

	if !strings.Contains(exec.query, "$4") || strings.Contains(exec.query, ":image_key") {
		t.Errorf("query not rebound: %s", exec.query)
	}
	if !strings.Contains(exec.query, "image_metadata.processed_at IS NULL") {
		t.Errorf("query does not replace rows without processed_at: %s", exec.query)
	}
	if len(exec.args) != 4 {
		t.Fatalf("args = %v", exec.args)
	}
	if exec.args[0] != "a.jpg" || exec.args[1] != "processed/a.jpg" {
		t.Errorf("keys = %v, %v", exec.args[0], exec.args[1])
	}

	labels, ok := exec.args[2].(string)
	if !ok {
		t.Fatalf("labels arg = %T, want string", exec.args[2])
	}
	for _, want := range []string{
		`"Confidence":98.4`,
		`"Top":0.30000000000000004`,
		`"Name":"Outdoors","Confidence":91.25,"BoundingBox":{}`,
	} {
		if !strings.Contains(labels, want) {
			t.Errorf("labels %s missing %s", labels, want)
		}
	}
}

func TestUpsertMetadataNotApplied(t *testing.T) {
	repo := &metadataRepository{q: &fakeExecutor{affected: 0}, log: quietLogger()}

	applied, err := repo.UpsertMetadata(context.Background(), sampleRecord())
	if err != nil || applied {
		t.Errorf("applied, err = %v, %v; want false, nil", applied, err)
	}
}

func TestMetadataStore(t *testing.T) {
	dbErr := errors.New("connection refused")

	tests := []struct {
		name     string
		repo     fakeRepository
		wantErr  error
		wantFail bool
	}{
		{
			name: "written",
			repo: fakeRepository{client: Client{Metadata: &metadataRepository{q: &fakeExecutor{affected: 1}, log: quietLogger()}}},
		},
		{
			name: "newer row kept",
			repo: fakeRepository{client: Client{Metadata: &metadataRepository{q: &fakeExecutor{affected: 0}, log: quietLogger()}}},
		},
		{
			name:     "exec failure",
			repo:     fakeRepository{client: Client{Metadata: &metadataRepository{q: &fakeExecutor{err: dbErr}, log: quietLogger()}}},
			wantErr:  dbErr,
			wantFail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewMetadataStore(tt.repo, quietLogger()).UpsertMetadata(context.Background(), sampleRecord())
			if (err != nil) != tt.wantFail {
				t.Fatalf("error = %v, wantFail %v", err, tt.wantFail)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want wrapped %v", err, tt.wantErr)
			}
		})
	}
}
