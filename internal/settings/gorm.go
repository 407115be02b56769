package settings

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting is one persisted key/value row.
type Setting struct {
	Key       string    `gorm:"column:setting_key;primaryKey;size:64"`
	Value     string    `gorm:"column:setting_value;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the default table name.
func (Setting) TableName() string {
	return "client_settings"
}

// GormStore keeps settings in a SQL table.
type GormStore struct {
	db    *gorm.DB
	retry retrier
}

// NewGormStore constructs a store over an open gorm connection.
func NewGormStore(db *gorm.DB, logger *zap.Logger) *GormStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormStore{db: db, retry: newRetrier(logger.Named("gorm_settings"))}
}

// AutoMigrate ensures the schema is available.
func (s *GormStore) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Setting{})
}

func (s *GormStore) Get(ctx context.Context, key string) (string, error) {
	var row Setting
	err := s.retry.do(ctx, "settings.gorm.get", key, func() error {
		err := s.db.WithContext(ctx).First(&row, "setting_key = ?", key).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return row.Value, nil
}

func (s *GormStore) Set(ctx context.Context, key, value string) error {
	row := &Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.retry.do(ctx, "settings.gorm.set", key, func() error {
		return upsert(s.db.WithContext(ctx), row).Error
	})
}

// upsert inserts row or overwrites the value of an existing key.
func upsert(db *gorm.DB, row *Setting) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"setting_value", "updated_at"}),
	}).Create(row)
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	return s.retry.do(ctx, "settings.gorm.delete", key, func() error {
		return s.db.WithContext(ctx).Where("setting_key = ?", key).Delete(&Setting{}).Error
	})
}
