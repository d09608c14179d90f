package services

import (
	"context"

	"aura-api/models"

	"gorm.io/gorm"
)

type SecurityService struct {
	DB *gorm.DB
}

func NewSecurityService(db *gorm.DB) *SecurityService {
	return &SecurityService{DB: db}
}

// Record stores a blocked request.
func (s *SecurityService) Record(ctx context.Context, ev *models.SecurityEvent) error {
	return s.DB.WithContext(ctx).Create(ev).Error
}

// Recent lists the latest security events for admins.
func (s *SecurityService) Recent(ctx context.Context, limit int) ([]models.SecurityEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var events []models.SecurityEvent
	err := s.DB.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, err
}
