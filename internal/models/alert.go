package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

type AlertType string

const (
	AlertTypeFlashFlood     AlertType = "FlashFlood"
	AlertTypeRiverFlood     AlertType = "RiverFlood"
	AlertTypeCoastalFlood   AlertType = "CoastalFlood"
	AlertTypeUrbanFlood     AlertType = "UrbanFlood"
	AlertTypeElNinoFlooding AlertType = "ElNinoFlooding"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertTypeFlashFlood, AlertTypeRiverFlood, AlertTypeCoastalFlood, AlertTypeUrbanFlood, AlertTypeElNinoFlooding:
		return true
	}
	return false
}

type AlertSeverity string

const (
	AlertSeverityLow    AlertSeverity = "Low"
	AlertSeverityMedium AlertSeverity = "Medium"
	AlertSeverityHigh   AlertSeverity = "High"
)

func (s AlertSeverity) Valid() bool {
	switch s {
	case AlertSeverityLow, AlertSeverityMedium, AlertSeverityHigh:
		return true
	}
	return false
}

type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "active"
	AlertStatusResolved AlertStatus = "resolved"
	AlertStatusArchived AlertStatus = "archived"
)

var (
	ErrAlreadyArchived   = errors.New("alert already archived")
	ErrNotArchived       = errors.New("alert is not archived")
	ErrInvalidTransition = errors.New("invalid alert status transition")
)

type WaterLevels struct {
	Current   string `json:"current" binding:"required"`
	Predicted string `json:"predicted" binding:"required"`
}

type WeatherForecast struct {
	Next24Hours string `json:"next_24_hours" gorm:"column:next_24_hours" binding:"required"`
	Next48Hours string `json:"next_48_hours" gorm:"column:next_48_hours" binding:"required"`
}

type Alert struct {
	ID                    uint                        `json:"alert_id" gorm:"primaryKey"`
	AlertType             AlertType                   `json:"alert_type" gorm:"size:32;not null;index"`
	Severity              AlertSeverity               `json:"severity" gorm:"size:16;not null"`
	Location              string                      `json:"location" gorm:"size:128;not null;index"`
	WaterLevels           WaterLevels                 `json:"water_levels" gorm:"embedded;embeddedPrefix:water_level_"`
	EvacuationRoutes      datatypes.JSONSlice[string] `json:"evacuation_routes"`
	EmergencyContacts     datatypes.JSONSlice[string] `json:"emergency_contacts"`
	PrecautionaryMeasures datatypes.JSONSlice[string] `json:"precautionary_measures"`
	WeatherForecast       WeatherForecast             `json:"weather_forecast" gorm:"embedded;embeddedPrefix:forecast_"`
	Status                AlertStatus                 `json:"status" gorm:"size:16;not null;default:active;index"`
	CreatedAt             time.Time                   `json:"created_at"`
	UpdatedAt             time.Time                   `json:"updated_at"`
}

// Archive moves an active alert to archived.
func (a *Alert) Archive() error {
	switch a.Status {
	case AlertStatusArchived:
		return ErrAlreadyArchived
	case AlertStatusActive:
		a.Status = AlertStatusArchived
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Unarchive returns an archived alert to active.
func (a *Alert) Unarchive() error {
	if a.Status != AlertStatusArchived {
		return ErrNotArchived
	}
	a.Status = AlertStatusActive
	return nil
}

// SetStatus applies a status change requested through a regular update.
// Only active <-> resolved is allowed here; archiving has its own actions.
func (a *Alert) SetStatus(next AlertStatus) error {
	if next == a.Status {
		return nil
	}
	if a.Status == AlertStatusArchived || next == AlertStatusArchived {
		return ErrInvalidTransition
	}
	if next != AlertStatusActive && next != AlertStatusResolved {
		return ErrInvalidTransition
	}
	a.Status = next
	return nil
}
