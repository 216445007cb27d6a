package models

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleReporter Role = "reporter"
	RoleViewer   Role = "viewer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleReporter || r == RoleViewer
}

type User struct {
	ID           uint      `json:"user_id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"size:128;not null"`
	Email        string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	Role         Role      `json:"role" gorm:"size:16;not null;default:viewer"`
	PhotoURL     string    `json:"photo_url,omitempty" gorm:"size:512"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportVerified ReportStatus = "verified"
	ReportRejected ReportStatus = "rejected"
)

func (s ReportStatus) Valid() bool {
	return s == ReportPending || s == ReportVerified || s == ReportRejected
}

// CommunityReport is a citizen-submitted flood incident.
type CommunityReport struct {
	ID          uint         `json:"report_id" gorm:"primaryKey"`
	UserID      *uint        `json:"user_id,omitempty" gorm:"index"`
	ReportType  string       `json:"report_type" gorm:"size:64;not null;index"`
	Location    string       `json:"location" gorm:"size:128;not null;index"`
	Description string       `json:"description" gorm:"type:text;not null"`
	ImageURL    string       `json:"image_url,omitempty" gorm:"size:512"`
	Status      ReportStatus `json:"status" gorm:"size:16;not null;default:pending;index"`
	CreatedAt   time.Time    `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
