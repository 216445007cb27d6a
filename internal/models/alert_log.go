package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DispatchStatus string

const (
	DispatchSuccess DispatchStatus = "success"
	DispatchFailed  DispatchStatus = "failed"
)

var ErrImmutableLog = errors.New("alert log entries are append-only")

// AlertLog records one dispatch attempt to one subscriber. Rows are written
// once and never changed.
type AlertLog struct {
	ID                    uint                        `json:"id" gorm:"primaryKey"`
	AlertID               uint                        `json:"alert_id" gorm:"index"`
	SubscriptionID        uint                        `json:"subscription_id"`
	Method                SubscriptionMethod          `json:"method" gorm:"size:8;not null;index"`
	Contact               string                      `json:"contact" gorm:"size:255;not null"`
	AlertType             AlertType                   `json:"alert_type" gorm:"size:32"`
	Severity              AlertSeverity               `json:"severity" gorm:"size:16"`
	Location              string                      `json:"location" gorm:"size:128;index"`
	WaterLevels           WaterLevels                 `json:"water_levels" gorm:"embedded;embeddedPrefix:water_level_"`
	EvacuationRoutes      datatypes.JSONSlice[string] `json:"evacuation_routes"`
	EmergencyContacts     datatypes.JSONSlice[string] `json:"emergency_contacts"`
	PrecautionaryMeasures datatypes.JSONSlice[string] `json:"precautionary_measures"`
	WeatherForecast       WeatherForecast             `json:"weather_forecast" gorm:"embedded;embeddedPrefix:forecast_"`
	Message               string                      `json:"message" gorm:"type:text"`
	TimeSent              time.Time                   `json:"time_sent" gorm:"index"`
	Status                DispatchStatus              `json:"status" gorm:"size:8;not null;index"`
	Error                 string                      `json:"error,omitempty" gorm:"type:text"`
}

// NewAlertLog snapshots the alert's descriptive fields for one attempt.
func NewAlertLog(a *Alert, sub *Subscription, message string, sentAt time.Time, sendErr error) *AlertLog {
	entry := &AlertLog{
		AlertID:               a.ID,
		SubscriptionID:        sub.ID,
		Method:                sub.Method,
		Contact:               sub.Contact,
		AlertType:             a.AlertType,
		Severity:              a.Severity,
		Location:              a.Location,
		WaterLevels:           a.WaterLevels,
		EvacuationRoutes:      a.EvacuationRoutes,
		EmergencyContacts:     a.EmergencyContacts,
		PrecautionaryMeasures: a.PrecautionaryMeasures,
		WeatherForecast:       a.WeatherForecast,
		Message:               message,
		TimeSent:              sentAt,
		Status:                DispatchSuccess,
	}
	if sendErr != nil {
		entry.Status = DispatchFailed
		entry.Error = sendErr.Error()
	}
	return entry
}

func (l *AlertLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableLog
}

func (l *AlertLog) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableLog
}
