package models

import (
	"time"

	"gorm.io/datatypes"
)

type Resource struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:128;not null" binding:"required"`
	Category  string    `json:"category" gorm:"size:32;not null" binding:"required,oneof=shelter food water medical equipment other"`
	Quantity  int       `json:"quantity" binding:"gte=0"`
	Location  string    `json:"location" gorm:"size:128;index" binding:"required"`
	Contact   string    `json:"contact" gorm:"size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Location struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:128;not null;uniqueIndex" binding:"required"`
	County    string    `json:"county" gorm:"size:128"`
	Latitude  float64   `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude float64   `json:"longitude" binding:"gte=-180,lte=180"`
	RiskLevel string    `json:"risk_level" gorm:"size:16" binding:"omitempty,oneof=Low Medium High"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Demographics struct {
	ID               uint                        `json:"id" gorm:"primaryKey"`
	Location         string                      `json:"location" gorm:"size:128;not null;index" binding:"required"`
	Population       int                         `json:"population" binding:"gte=0"`
	Households       int                         `json:"households" binding:"gte=0"`
	VulnerableGroups datatypes.JSONSlice[string] `json:"vulnerable_groups"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

// Demographics would otherwise pluralize to "demographicses".
func (Demographics) TableName() string {
	return "demographics"
}

type Healthcare struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"size:128;not null" binding:"required"`
	FacilityType string    `json:"facility_type" gorm:"size:32;not null" binding:"required,oneof=hospital clinic health_center dispensary"`
	Location     string    `json:"location" gorm:"size:128;index" binding:"required"`
	Capacity     int       `json:"capacity" binding:"gte=0"`
	Contact      string    `json:"contact" gorm:"size:255"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Healthcare) TableName() string {
	return "healthcare_facilities"
}

type Responder struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"size:128;not null" binding:"required"`
	Organization string    `json:"organization" gorm:"size:128"`
	Phone        string    `json:"phone" gorm:"size:32" binding:"required"`
	Email        string    `json:"email" gorm:"size:255" binding:"omitempty,email"`
	Location     string    `json:"location" gorm:"size:128;index" binding:"required"`
	Available    bool      `json:"available"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type GeneratedReport struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:255;not null" binding:"required"`
	Summary     string    `json:"summary" gorm:"type:text"`
	PeriodStart time.Time `json:"period_start" binding:"required"`
	PeriodEnd   time.Time `json:"period_end" binding:"required,gtefield=PeriodStart"`
	GeneratedBy uint      `json:"generated_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// All lists every table for auto-migration.
func All() []any {
	return []any{
		&User{},
		&Alert{},
		&Subscription{},
		&AlertLog{},
		&CommunityReport{},
		&Resource{},
		&Location{},
		&Demographics{},
		&Healthcare{},
		&Flood{},
		&Responder{},
		&GeneratedReport{},
	}
}
