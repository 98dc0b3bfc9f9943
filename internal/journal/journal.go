package journal

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nabilhasan01/CSE499A/internal/config"
)

// CycleRecord is the outcome of one control loop iteration.
type CycleRecord struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CycleID     string    `gorm:"size:36;uniqueIndex;not null" json:"cycle_id"`
	StartedAt   time.Time `gorm:"index;not null" json:"started_at"`
	DurationMS  int64     `json:"duration_ms"`
	LeafClass   string    `gorm:"size:128" json:"leaf_class,omitempty"`
	Crop        string    `gorm:"size:64" json:"crop,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	PH          *float64  `json:"ph,omitempty"`
	Failures    string    `gorm:"size:512" json:"failures,omitempty"`
	Skipped     bool      `json:"skipped"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CycleRecord) TableName() string {
	return "cycle_records"
}

// Store persists cycle records through GORM.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured database and migrates the schema.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN())
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.AutoMigrate(&CycleRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return &Store{db: db}, nil
}

func logLevel(name string) gormlogger.LogLevel {
	switch name {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	}
	return gormlogger.Warn
}

func (s *Store) Record(ctx context.Context, rec *CycleRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("record cycle %s: %w", rec.CycleID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]CycleRecord, error) {
	var out []CycleRecord
	err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("query recent cycles: %w", err)
	}
	return out, nil
}

// Count returns the number of cycles with the given skipped flag.
func (s *Store) Count(ctx context.Context, skipped bool) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&CycleRecord{}).Where("skipped = ?", skipped).Count(&n).Error
	return n, err
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
