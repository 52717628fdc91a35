// Package postgres backs the domain stores with a relational database
// through GORM.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/resqnow/evac-routing-service/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store implements domain.AlertStore, domain.ShelterStore,
// domain.ResidentStore and domain.RouteStore on a single database handle.
type Store struct {
	db *gorm.DB
}

// Open connects to the database and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := db.AutoMigrate(
		&domain.Alert{},
		&domain.Shelter{},
		&domain.Resident{},
		&domain.RouteRecord{},
	); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle. Used by tests and the seeder.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetAlert returns the alert with the given id, or (nil, nil) when absent.
func (s *Store) GetAlert(ctx context.Context, alertID string) (*domain.Alert, error) {
	var alert domain.Alert
	err := s.db.WithContext(ctx).First(&alert, "alert_id = ?", alertID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading alert %s: %w", alertID, err)
	}
	return &alert, nil
}

func (s *Store) ListAlerts(ctx context.Context) ([]domain.Alert, error) {
	var alerts []domain.Alert
	if err := s.db.WithContext(ctx).Order("alert_id").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	return alerts, nil
}

// PutAlert inserts or replaces an alert by its id.
func (s *Store) PutAlert(ctx context.Context, alert domain.Alert) error {
	err := s.db.WithContext(ctx).Save(&alert).Error
	if err != nil {
		return fmt.Errorf("storing alert %s: %w", alert.ID, err)
	}
	return nil
}

func (s *Store) ListShelters(ctx context.Context) ([]domain.Shelter, error) {
	var shelters []domain.Shelter
	if err := s.db.WithContext(ctx).Order("shelter_id").Find(&shelters).Error; err != nil {
		return nil, fmt.Errorf("listing shelters: %w", err)
	}
	return shelters, nil
}

// PutShelter inserts or replaces a shelter. Used by the seeder.
func (s *Store) PutShelter(ctx context.Context, shelter domain.Shelter) error {
	if err := s.db.WithContext(ctx).Save(&shelter).Error; err != nil {
		return fmt.Errorf("storing shelter %s: %w", shelter.ID, err)
	}
	return nil
}

// GetResident returns the resident registered under the phone number, or
// (nil, nil) when absent.
func (s *Store) GetResident(ctx context.Context, phone string) (*domain.Resident, error) {
	var resident domain.Resident
	err := s.db.WithContext(ctx).First(&resident, "phone = ?", phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading resident: %w", err)
	}
	return &resident, nil
}

// PutResident inserts or replaces a resident. Used by the seeder.
func (s *Store) PutResident(ctx context.Context, resident domain.Resident) error {
	if err := s.db.WithContext(ctx).Save(&resident).Error; err != nil {
		return fmt.Errorf("storing resident: %w", err)
	}
	return nil
}

func (s *Store) ListRoutesByAlert(ctx context.Context, alertID string) ([]domain.RouteRecord, error) {
	var records []domain.RouteRecord
	err := s.db.WithContext(ctx).Where("alert_id = ?", alertID).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("listing routes for alert %s: %w", alertID, err)
	}
	return records, nil
}

func (s *Store) PutRoute(ctx context.Context, record domain.RouteRecord) error {
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("storing route %s: %w", record.RouteID, err)
	}
	return nil
}
