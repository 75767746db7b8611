package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// Stats summarizes the contents of the database.
type Stats struct {
	Users          int64
	ActiveSessions int64
	CarMakes       int64
	CarModels      int64
	LastLogin      *time.Time
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	db := c.db.WithContext(ctx)

	if err := db.Model(&User{}).Count(&s.Users).Error; err != nil {
		log.Error("failed to count users", "error", err)
		return nil, err
	}
	if err := db.Model(&Session{}).Where("revoked = ? AND expires_at > ?", false, time.Now().UTC()).Count(&s.ActiveSessions).Error; err != nil {
		log.Error("failed to count sessions", "error", err)
		return nil, err
	}
	if err := db.Model(&CarMake{}).Count(&s.CarMakes).Error; err != nil {
		log.Error("failed to count car makes", "error", err)
		return nil, err
	}
	if err := db.Model(&CarModel{}).Count(&s.CarModels).Error; err != nil {
		log.Error("failed to count car models", "error", err)
		return nil, err
	}

	var last Session
	result := db.Order("created_at DESC").Limit(1).Find(&last)
	if result.Error != nil {
		log.Error("failed to get last session", "error", result.Error)
		return nil, result.Error
	}
	if result.RowsAffected > 0 {
		s.LastLogin = &last.CreatedAt
	}

	return &s, nil
}
