package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

type SubscriptionMethod string

const (
	MethodEmail SubscriptionMethod = "email"
	MethodSMS   SubscriptionMethod = "sms"
)

func (m SubscriptionMethod) Valid() bool {
	return m == MethodEmail || m == MethodSMS
}

type Subscription struct {
	ID        uint                        `json:"id" gorm:"primaryKey"`
	Method    SubscriptionMethod          `json:"method" gorm:"size:8;not null;uniqueIndex:idx_subscriptions_method_contact"`
	Contact   string                      `json:"contact" gorm:"size:255;not null;uniqueIndex:idx_subscriptions_method_contact"`
	Locations datatypes.JSONSlice[string] `json:"locations"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

func (s *Subscription) Covers(location string) bool {
	return slices.Contains(s.Locations, location)
}
