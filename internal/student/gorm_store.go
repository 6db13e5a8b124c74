package student

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type studentRow struct {
	ID                  string `gorm:"primaryKey;size:64"`
	FullName            string `gorm:"not null"`
	MatricNumber        string `gorm:"index"`
	Level               string
	Department          string `gorm:"index"`
	PhotoURL            string
	Quote               string
	Bio                 string
	Hobbies             string
	Achievements        string
	FavoriteCourse      string
	LeastFavoriteCourse string
	BestMoment          string
	WorstMoment         string
	FavoriteLecturer    string
	Advice              string
	Instagram           string
	Twitter             string
	LinkedIn            string
	RelationshipStatus  string
	BirthMonth          string
	BirthDay            string
	Track               string
	IfNotThisProgram    string
	FavoriteColor       string
	Featured            bool `gorm:"index"`
	CardImageURL        *string
	Extra               datatypes.JSONMap
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (studentRow) TableName() string { return "students" }

// GormStore persists records in a relational database through gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(engine, dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(engine) {
	case EngineSQLite:
		dialector = sqlite.Open(dsn)
	case EnginePostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm engine: %s", engine)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", engine, err)
	}
	return NewGormStoreFromDB(db)
}

func NewGormStoreFromDB(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&studentRow{}); err != nil {
		return nil, fmt.Errorf("migrate students: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Create(ctx context.Context, r Record) (Record, error) {
	r, err := prepareNew(r, time.Now().UTC())
	if err != nil {
		return Record{}, err
	}
	row := toRow(r)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return Record{}, fmt.Errorf("create student: %w", err)
	}
	return fromRow(row), nil
}

func (s *GormStore) Get(ctx context.Context, id string) (Record, error) {
	var row studentRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get student: %w", err)
	}
	return fromRow(row), nil
}

func (s *GormStore) Update(ctx context.Context, r Record) (Record, error) {
	if strings.TrimSpace(r.FullName) == "" {
		return Record{}, ErrNameRequired
	}
	prev, err := s.Get(ctx, r.ID)
	if err != nil {
		return Record{}, err
	}
	r.CreatedAt = prev.CreatedAt
	r.UpdatedAt = time.Now().UTC()
	row := toRow(r)
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return Record{}, fmt.Errorf("update student: %w", err)
	}
	return fromRow(row), nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&studentRow{})
	if res.Error != nil {
		return fmt.Errorf("delete student: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) List(ctx context.Context) ([]Record, error) {
	return s.find(ctx, s.db.WithContext(ctx))
}

func (s *GormStore) ListFeatured(ctx context.Context) ([]Record, error) {
	return s.find(ctx, s.db.WithContext(ctx).Where("featured = ?", true))
}

func (s *GormStore) SetFeatured(ctx context.Context, id string, featured bool) (Record, error) {
	return s.updateColumns(ctx, id, map[string]interface{}{"featured": featured})
}

func (s *GormStore) AttachCard(ctx context.Context, id, cardURL string) (Record, error) {
	return s.updateColumns(ctx, id, map[string]interface{}{"card_image_url": cardURL})
}

func (s *GormStore) updateColumns(ctx context.Context, id string, cols map[string]interface{}) (Record, error) {
	cols["updated_at"] = time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&studentRow{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return Record{}, fmt.Errorf("update student: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return Record{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *GormStore) find(_ context.Context, q *gorm.DB) ([]Record, error) {
	var rows []studentRow
	if err := q.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

func toRow(r Record) studentRow {
	return studentRow{
		ID: r.ID, FullName: r.FullName, MatricNumber: r.MatricNumber, Level: r.Level,
		Department: r.Department, PhotoURL: r.PhotoURL, Quote: r.Quote, Bio: r.Bio,
		Hobbies: r.Hobbies, Achievements: r.Achievements, FavoriteCourse: r.FavoriteCourse,
		LeastFavoriteCourse: r.LeastFavoriteCourse, BestMoment: r.BestMoment,
		WorstMoment: r.WorstMoment, FavoriteLecturer: r.FavoriteLecturer, Advice: r.Advice,
		Instagram: r.Instagram, Twitter: r.Twitter, LinkedIn: r.LinkedIn,
		RelationshipStatus: r.RelationshipStatus, BirthMonth: r.BirthMonth, BirthDay: r.BirthDay,
		Track: r.Track, IfNotThisProgram: r.IfNotThisProgram, FavoriteColor: r.FavoriteColor,
		Featured: r.Featured, CardImageURL: r.CardImageURL, Extra: datatypes.JSONMap(r.Extra),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func fromRow(row studentRow) Record {
	return Record{
		ID: row.ID, FullName: row.FullName, MatricNumber: row.MatricNumber, Level: row.Level,
		Department: row.Department, PhotoURL: row.PhotoURL, Quote: row.Quote, Bio: row.Bio,
		Hobbies: row.Hobbies, Achievements: row.Achievements, FavoriteCourse: row.FavoriteCourse,
		LeastFavoriteCourse: row.LeastFavoriteCourse, BestMoment: row.BestMoment,
		WorstMoment: row.WorstMoment, FavoriteLecturer: row.FavoriteLecturer, Advice: row.Advice,
		Instagram: row.Instagram, Twitter: row.Twitter, LinkedIn: row.LinkedIn,
		RelationshipStatus: row.RelationshipStatus, BirthMonth: row.BirthMonth, BirthDay: row.BirthDay,
		Track: row.Track, IfNotThisProgram: row.IfNotThisProgram, FavoriteColor: row.FavoriteColor,
		Featured: row.Featured, CardImageURL: row.CardImageURL, Extra: map[string]any(row.Extra),
		CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}
}
