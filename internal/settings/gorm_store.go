package settings

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Record struct {
	Key       string    `gorm:"column:origin_key;primaryKey;size:255"`
	Data      string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Record) TableName() string {
	return "commentary_settings"
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&Record{})
}

func (s *GormStore) Load(ctx context.Context, origin string) (*Patch, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("origin_key = ?", recordKey(origin)).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord([]byte(rec.Data))
}

func (s *GormStore) Save(ctx context.Context, origin string, settings Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	rec := Record{
		Key:       recordKey(origin),
		Data:      string(data),
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "origin_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&rec).Error
}
