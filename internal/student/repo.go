package student

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("student not found")
	ErrNameRequired = errors.New("full name is required")
)

// Repository is the document store holding student records.
type Repository interface {
	Create(ctx context.Context, r Record) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Update(ctx context.Context, r Record) (Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Record, error)
	ListFeatured(ctx context.Context) ([]Record, error)
	SetFeatured(ctx context.Context, id string, featured bool) (Record, error)
	AttachCard(ctx context.Context, id, cardURL string) (Record, error)
}

const (
	EngineJSON     = "json"
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
)

// NewByEngine opens the repository named by engine. dsn is a file path for
// json and sqlite, and a connection string for postgres.
func NewByEngine(engine, dsn string) (Repository, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineJSON:
		return NewJSONStore(dsn)
	case EngineSQLite, EnginePostgres:
		return NewGormStore(engine, dsn)
	default:
		return nil, fmt.Errorf("unsupported store engine: %s", engine)
	}
}

// prepareNew assigns identity and timestamps to a record about to be stored.
func prepareNew(r Record, now time.Time) (Record, error) {
	r.FullName = strings.TrimSpace(r.FullName)
	if r.FullName == "" {
		return Record{}, ErrNameRequired
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	return r, nil
}
