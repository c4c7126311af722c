package subscriptions

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/gridlead/pushgate/internal/errors"
)

// SQLiteStore keeps subscriptions in a local SQLite database. It backs the
// subscribe/unsubscribe API in self-hosted deployments where no external
// datastore owns the rows.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (or creates) the database at path and migrates the
// push_subscriptions table.
func NewSQLiteStore(path string, debug bool) (*SQLiteStore, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, errors.New(fmt.Errorf("opening subscription database: %w", err)).
			Component("subscriptions").
			Category(errors.CategoryDatabase).
			Context("path", path).
			Build()
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, errors.New(fmt.Errorf("migrating subscription table: %w", err)).
			Component("subscriptions").
			Category(errors.CategoryDatabase).
			Build()
	}

	return &SQLiteStore{db: db}, nil
}

// Save upserts the record keyed by the unique endpoint column.
func (s *SQLiteStore) Save(ctx context.Context, record *Record) error {
	record.UpdatedAt = time.Now()
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "user_id", "updated_at"}),
		}).
		Create(record).Error
	if err != nil {
		return errors.New(fmt.Errorf("saving subscription: %w", err)).
			Component("subscriptions").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

// GetByEndpoint retrieves a subscription by its endpoint URL.
func (s *SQLiteStore) GetByEndpoint(ctx context.Context, endpoint string) (*Record, error) {
	var record Record
	err := s.db.WithContext(ctx).Where("endpoint = ?", endpoint).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.New(fmt.Errorf("loading subscription: %w", err)).
			Component("subscriptions").
			Category(errors.CategoryDatabase).
			Build()
	}
	return &record, nil
}

// List returns stored subscriptions, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	var records []*Record
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, errors.New(fmt.Errorf("listing subscriptions: %w", err)).
			Component("subscriptions").
			Category(errors.CategoryDatabase).
			Build()
	}
	return records, nil
}

// DeleteByEndpoint removes a subscription. A missing row is not an error,
// the invalidation side effect only cares that the row is gone.
func (s *SQLiteStore) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	err := s.db.WithContext(ctx).Where("endpoint = ?", endpoint).Delete(&Record{}).Error
	if err != nil {
		return errors.New(fmt.Errorf("deleting subscription: %w", err)).
			Component("subscriptions").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
