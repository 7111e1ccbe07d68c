package service

import (
	"context"
	"time"

	"github.com/shenikar/surakshita/internal/lifecycle"
	"github.com/shenikar/surakshita/internal/models"
)

//go:generate mockgen -source=service.go -destination=mocks/mock_service.go -package=mocks

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id int64) (*models.Incident, error)
	GetForOwner(ctx context.Context, id, ownerID int64) (*models.Incident, error)
	ListByOwner(ctx context.Context, ownerID int64, status *models.StatusKind) ([]*models.Incident, error)
	ListByOwnerAfter(ctx context.Context, ownerID, lastID int64) ([]*models.Incident, error)
	ListGlobal(ctx context.Context, status *models.StatusKind) ([]*models.AlertIncident, error)
	ListAlertsAfter(ctx context.Context, lastID int64) ([]*models.AlertIncident, error)
	ListActiveAlerts(ctx context.Context) ([]*models.AlertIncident, error)
	ListResolvedAlerts(ctx context.Context) ([]*models.AlertIncident, error)
	AlertStats(ctx context.Context) (models.AlertStats, error)
	// ApplyTransition - единственная условная запись статуса; ErrNotFound, если условие не совпало
	ApplyTransition(ctx context.Context, id int64, t lifecycle.Transition) (*models.Incident, error)
	DeleteByOwner(ctx context.Context, id, ownerID int64) error
	CategoryCounts(ctx context.Context, ownerID int64) ([]models.CategoryCount, error)
	Timeline(ctx context.Context, ownerID int64, since time.Time) ([]models.DayCount, error)
	OwnerSummary(ctx context.Context, ownerID int64) (models.OwnerSummary, error)
}

// UserRepository определяет контракт для работы с бд пользователей
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// IncidentService определяет контракт бизнес-логики пользовательского домена
type IncidentService interface {
	Report(ctx context.Context, ownerID int64, in models.ReportInput) (*models.Incident, error)
	ReportSOS(ctx context.Context, ownerID int64, in models.ReportInput) (*models.Incident, error)
	List(ctx context.Context, ownerID int64, statusFilter string) ([]*models.Incident, error)
	UpdateStatus(ctx context.Context, ownerID, incidentID int64, status string) (*models.Incident, error)
	Delete(ctx context.Context, ownerID, incidentID int64) error
	Analytics(ctx context.Context, ownerID int64) (*models.Analytics, error)
	Poll(ctx context.Context, ownerID, lastID int64) ([]*models.Incident, error)
}

// AccountService определяет контракт регистрации и входа пользователей
type AccountService interface {
	Register(ctx context.Context, in models.RegisterInput) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, error)
}

// DispatchService определяет контракт операторского домена
type DispatchService interface {
	Dispatch(ctx context.Context, incidentID int64, unit string) (*models.Incident, error)
	Resolve(ctx context.Context, incidentID int64) (*models.Incident, error)
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	ListAll(ctx context.Context, statusFilter string) ([]*models.AlertIncident, error)
	PollAlerts(ctx context.Context, lastID int64) ([]*models.AlertIncident, error)
}
