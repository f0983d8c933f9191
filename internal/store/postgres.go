package store

import (
	"context"
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type userRow struct {
	ID       int64  `gorm:"primaryKey"`
	Username string `gorm:"uniqueIndex"`
}

func (userRow) TableName() string { return "users" }

// PostgresStore implements UserStore on Postgres via gorm.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore opens the database and migrates the users table.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&userRow{}); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SaveUser(ctx context.Context, id int64, username string) error {
	row := userRow{ID: id, Username: username}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username"}),
		}).
		Create(&row).Error
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Delete(&userRow{}, id).Error
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*UserRecord, error) {
	var row userRow
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &UserRecord{ID: row.ID, Username: row.Username}, nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
