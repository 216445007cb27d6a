package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mr1hm/go-flood-alerts/internal/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalid           = errors.New("invalid input")
	ErrAlreadySubscribed = errors.New("already subscribed")
	ErrEmailTaken        = errors.New("email already registered")
)

type AlertFilter struct {
	Limit    int
	Offset   int
	Query    string // free text over location, type and precautionary measures
	Type     *models.AlertType
	Severity *models.AlertSeverity
	Status   *models.AlertStatus
	From     *time.Time
	To       *time.Time
}

type ReportFilter struct {
	Limit    int
	Offset   int
	Status   *models.ReportStatus
	Type     string
	Location string
}

type AlertLogFilter struct {
	Limit    int
	Offset   int
	Location string
	Method   *models.SubscriptionMethod
	Status   *models.DispatchStatus
}

// LabelCount is one bar of an analytics chart.
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type AlertRepository interface {
	CreateAlert(ctx context.Context, a *models.Alert) error
	GetAlert(ctx context.Context, id uint) (*models.Alert, error)
	ListAlerts(ctx context.Context, opts AlertFilter) ([]models.Alert, error)
	UpdateAlert(ctx context.Context, a *models.Alert) error
	ArchiveAlert(ctx context.Context, id uint) (*models.Alert, error)
	UnarchiveAlert(ctx context.Context, id uint) (*models.Alert, error)
	DeleteAlert(ctx context.Context, id uint) error
	AlertLocales(ctx context.Context) ([]string, error)
	LatestActiveAlert(ctx context.Context, location string) (*models.Alert, error)
}

type SubscriptionRepository interface {
	Subscribe(ctx context.Context, method models.SubscriptionMethod, contact string, locations []string) (*models.Subscription, error)
	GetSubscription(ctx context.Context, id uint) (*models.Subscription, error)
	ListSubscriptions(ctx context.Context) ([]models.Subscription, error)
	UpdateSubscription(ctx context.Context, id uint, method models.SubscriptionMethod, contact string, locations []string) (*models.Subscription, error)
	DeleteSubscription(ctx context.Context, id uint) error
	Unsubscribe(ctx context.Context, method models.SubscriptionMethod, contact string) error
	ListByLocation(ctx context.Context) (map[string][]models.Subscription, error)
	ListForDispatch(ctx context.Context, location string, method models.SubscriptionMethod) ([]models.Subscription, error)
	SubscriptionsByLocation(ctx context.Context) ([]LabelCount, error)
	SubscriptionMethodCounts(ctx context.Context) ([]LabelCount, error)
}

type AlertLogRepository interface {
	AppendAlertLog(ctx context.Context, entry *models.AlertLog) error
	ListAlertLogs(ctx context.Context, opts AlertLogFilter) ([]models.AlertLog, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id uint) error
}

type ReportRepository interface {
	CreateReport(ctx context.Context, r *models.CommunityReport) error
	GetReport(ctx context.Context, id uint) (*models.CommunityReport, error)
	ListReports(ctx context.Context, opts ReportFilter) ([]models.CommunityReport, error)
	UpdateReport(ctx context.Context, r *models.CommunityReport) error
	DeleteReport(ctx context.Context, id uint) error
	ReportsInMonth(ctx context.Context, month time.Time) ([]models.CommunityReport, error)
	ReportsByMonth(ctx context.Context) ([]LabelCount, error)
	FrequentReportTypes(ctx context.Context, limit int) ([]LabelCount, error)
	FrequentLocations(ctx context.Context, limit int) ([]LabelCount, error)
}

type FloodRepository interface {
	AddFlood(ctx context.Context, f *models.Flood) error
	FloodExists(ctx context.Context, externalID string) (bool, error)
}
