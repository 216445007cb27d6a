package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Flood is a recorded flood event, either entered by an admin or ingested
// from an external feed.
type Flood struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ExternalID  string    `json:"external_id" gorm:"size:128;uniqueIndex"` // e.g. "gdacs_1000123"
	Source      string    `json:"source" gorm:"size:32;not null"`          // "gdacs" or "manual"
	Title       string    `json:"title" gorm:"size:255;not null" binding:"required"`
	Description string    `json:"description" gorm:"type:text"`
	Location    string    `json:"location" gorm:"size:128;index" binding:"required"`
	Severity    string    `json:"severity" gorm:"size:16"`
	Latitude    float64   `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude   float64   `json:"longitude" binding:"gte=-180,lte=180"`
	OccurredAt  time.Time `json:"occurred_at" gorm:"index"`
	Raw         []byte    `json:"-"` // raw feed item for debugging
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

func (f *Flood) Coordinates() Coordinates {
	return Coordinates{
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
	}
}

// BeforeCreate gives admin-entered floods a synthetic external id.
func (f *Flood) BeforeCreate(tx *gorm.DB) error {
	if f.Source == "" {
		f.Source = "manual"
	}
	if f.ExternalID == "" {
		f.ExternalID = f.Source + "_" + uuid.NewString()
	}
	return nil
}
