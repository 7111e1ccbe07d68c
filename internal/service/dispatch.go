package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shenikar/surakshita/internal/lifecycle"
	"github.com/shenikar/surakshita/internal/models"
	"github.com/shenikar/surakshita/internal/validation"
	"github.com/shenikar/surakshita/pkg/e"
	"github.com/sirupsen/logrus"
)

type dispatchService struct {
	repo    IncidentRepository
	machine *lifecycle.Machine
	logger  *logrus.Logger
}

func NewDispatchService(repo IncidentRepository, machine *lifecycle.Machine, logger *logrus.Logger) DispatchService {
	return &dispatchService{
		repo:    repo,
		machine: machine,
		logger:  logger,
	}
}

func (s *dispatchService) lookup(incidentID int64) func(context.Context) (*models.Incident, error) {
	return func(ctx context.Context) (*models.Incident, error) {
		return s.repo.GetByID(ctx, incidentID)
	}
}

// Dispatch назначает бригаду; повторное назначение перезаписывает предыдущее
func (s *dispatchService) Dispatch(ctx context.Context, incidentID int64, unit string) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "dispatch",
		"method":      "Dispatch",
		"incident_id": incidentID,
		"unit":        unit,
	})
	log.Info("Attempting to dispatch unit")

	parsed, err := validation.Unit(unit)
	if err != nil {
		log.WithError(err).Warn("Rejected unit")
		return nil, err
	}
	transition, err := s.machine.Dispatch(parsed)
	if err != nil {
		log.WithError(err).Warn("Rejected dispatch")
		return nil, err
	}

	updated, err := applyTransition(ctx, s.repo, incidentID, transition, s.lookup(incidentID))
	if err != nil {
		s.logFailure(log, err, "Dispatch not applied")
		return nil, fmt.Errorf("service: could not dispatch unit: %w", err)
	}

	log.WithField("note", updated.Status.Note).Info("Unit dispatched")
	return updated, nil
}

// Resolve закрывает инцидент из глобального вида оператора
func (s *dispatchService) Resolve(ctx context.Context, incidentID int64) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "dispatch",
		"method":      "Resolve",
		"incident_id": incidentID,
	})
	log.Info("Attempting to resolve incident")

	updated, err := applyTransition(ctx, s.repo, incidentID, s.machine.Resolve(), s.lookup(incidentID))
	if err != nil {
		s.logFailure(log, err, "Resolve not applied")
		return nil, fmt.Errorf("service: could not resolve incident: %w", err)
	}

	log.Info("Incident resolved")
	return updated, nil
}

func (s *dispatchService) logFailure(log *logrus.Entry, err error, msg string) {
	if errors.Is(err, e.ErrInternal) {
		log.WithError(err).Error(msg)
		return
	}
	log.WithError(err).Warn(msg)
}

// Dashboard собирает глобальный вид оператора
func (s *dispatchService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "dispatch",
		"method":  "Dashboard",
	})

	active, err := s.repo.ListActiveAlerts(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list active alerts")
		return nil, fmt.Errorf("service: could not build dashboard: %w", err)
	}
	resolved, err := s.repo.ListResolvedAlerts(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list resolved alerts")
		return nil, fmt.Errorf("service: could not build dashboard: %w", err)
	}
	stats, err := s.repo.AlertStats(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to get alert stats")
		return nil, fmt.Errorf("service: could not build dashboard: %w", err)
	}

	log.WithField("active", len(active)).Info("Dashboard built")
	return &models.Dashboard{
		Active:   active,
		Resolved: resolved,
		Stats:    stats,
	}, nil
}

// ListAll возвращает глобальный список инцидентов с необязательным фильтром статуса
func (s *dispatchService) ListAll(ctx context.Context, statusFilter string) ([]*models.AlertIncident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "dispatch",
		"method":  "ListAll",
		"status":  statusFilter,
	})

	status, err := validation.StatusFilter(statusFilter)
	if err != nil {
		log.WithError(err).Warn("Rejected status filter")
		return nil, err
	}
	incidents, err := s.repo.ListGlobal(ctx, status)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}
	return incidents, nil
}

// PollAlerts возвращает тревоги новее курсора
func (s *dispatchService) PollAlerts(ctx context.Context, lastID int64) ([]*models.AlertIncident, error) {
	if lastID < 0 {
		lastID = 0
	}
	alerts, err := s.repo.ListAlertsAfter(ctx, lastID)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"service": "dispatch",
			"method":  "PollAlerts",
			"last_id": lastID,
		}).WithError(err).Error("Failed to poll alerts")
		return nil, fmt.Errorf("service: could not poll alerts: %w", err)
	}
	return alerts, nil
}
