package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shenikar/surakshita/internal/config"
	"github.com/shenikar/surakshita/internal/lifecycle"
	"github.com/shenikar/surakshita/internal/models"
	"github.com/shenikar/surakshita/internal/validation"
	"github.com/shenikar/surakshita/pkg/e"
	"github.com/sirupsen/logrus"
)

type incidentService struct {
	repo    IncidentRepository
	machine *lifecycle.Machine
	policy  validation.Policy
	logger  *logrus.Logger
	cfg     *config.Config
	now     func() time.Time
}

func NewIncidentService(repo IncidentRepository, machine *lifecycle.Machine, logger *logrus.Logger, cfg *config.Config) IncidentService {
	return &incidentService{
		repo:    repo,
		machine: machine,
		policy:  validation.NewPolicy(cfg),
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Report проверяет и сохраняет обычный отчёт
func (s *incidentService) Report(ctx context.Context, ownerID int64, in models.ReportInput) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "Report",
		"user_id": ownerID,
	})
	log.Info("Attempting to create a new incident")

	incidentType := validation.Sanitize(in.IncidentType, 0)
	description := validation.Sanitize(in.Description, 0)

	if err := validation.IncidentType(incidentType); err != nil {
		log.WithError(err).Warn("Rejected incident type")
		return nil, err
	}
	if err := s.policy.Description(description); err != nil {
		log.WithError(err).Warn("Rejected description")
		return nil, err
	}
	lat, lon, err := s.policy.Coordinates(in.Latitude, in.Longitude)
	if err != nil {
		log.WithError(err).Warn("Rejected coordinates")
		return nil, err
	}

	incident := s.machine.NewReport(ownerID, incidentType, description, lat, lon)
	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}

	log.WithField("incident_id", incident.ID).Info("Incident created successfully")
	return incident, nil
}

// ReportSOS сохраняет экстренный вызов сразу в состоянии High Alert
func (s *incidentService) ReportSOS(ctx context.Context, ownerID int64, in models.ReportInput) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "ReportSOS",
		"user_id": ownerID,
	})
	log.Info("SOS alert received")

	lat, lon, err := s.policy.Coordinates(in.Latitude, in.Longitude)
	if err != nil {
		log.WithError(err).Warn("Rejected SOS coordinates")
		return nil, err
	}

	incident := s.machine.NewSOS(ownerID,
		validation.Sanitize(in.IncidentType, 0),
		validation.Sanitize(in.Description, 0),
		lat, lon,
	)
	if err := validation.IncidentType(incident.IncidentType); err != nil {
		log.WithError(err).Warn("Rejected SOS incident type")
		return nil, err
	}
	if err := s.policy.Description(incident.Description); err != nil {
		log.WithError(err).Warn("Rejected SOS description")
		return nil, err
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create SOS incident in repository")
		return nil, fmt.Errorf("service: could not create SOS incident: %w", err)
	}

	log.WithField("incident_id", incident.ID).Warn("SOS incident created")
	return incident, nil
}

// List возвращает инциденты владельца с необязательным фильтром статуса
func (s *incidentService) List(ctx context.Context, ownerID int64, statusFilter string) ([]*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "List",
		"user_id": ownerID,
		"status":  statusFilter,
	})

	status, err := validation.StatusFilter(statusFilter)
	if err != nil {
		log.WithError(err).Warn("Rejected status filter")
		return nil, err
	}

	incidents, err := s.repo.ListByOwner(ctx, ownerID, status)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}

	log.WithField("count", len(incidents)).Info("Incidents listed successfully")
	return incidents, nil
}

// UpdateStatus переключает Pending <-> Resolved на инциденте владельца
func (s *incidentService) UpdateStatus(ctx context.Context, ownerID, incidentID int64, status string) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateStatus",
		"user_id":     ownerID,
		"incident_id": incidentID,
		"status":      status,
	})
	log.Info("Attempting to update incident status")

	target, err := validation.Status(status)
	if err != nil {
		log.WithError(err).Warn("Rejected status value")
		return nil, err
	}
	transition, err := s.machine.OwnerToggle(ownerID, target)
	if err != nil {
		log.WithError(err).Warn("Rejected owner transition")
		return nil, err
	}

	updated, err := applyTransition(ctx, s.repo, incidentID, transition, func(ctx context.Context) (*models.Incident, error) {
		return s.repo.GetForOwner(ctx, incidentID, ownerID)
	})
	if err != nil {
		if errors.Is(err, e.ErrInternal) {
			log.WithError(err).Error("Failed to update incident status")
		} else {
			log.WithError(err).Warn("Incident status not updated")
		}
		return nil, fmt.Errorf("service: could not update incident status: %w", err)
	}

	log.Info("Incident status updated successfully")
	return updated, nil
}

// Delete необратимо удаляет инцидент владельца
func (s *incidentService) Delete(ctx context.Context, ownerID, incidentID int64) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "Delete",
		"user_id":     ownerID,
		"incident_id": incidentID,
	})
	log.Info("Attempting to delete incident")

	if err := s.repo.DeleteByOwner(ctx, incidentID, ownerID); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			log.WithError(err).Warn("Attempted to delete a non-existent incident")
		} else {
			log.WithError(err).Error("Failed to delete incident in repository")
		}
		return fmt.Errorf("service: could not delete incident: %w", err)
	}

	log.Info("Incident deleted successfully")
	return nil
}

// Analytics собирает агрегаты по инцидентам владельца
func (s *incidentService) Analytics(ctx context.Context, ownerID int64) (*models.Analytics, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "Analytics",
		"user_id": ownerID,
	})

	categories, err := s.repo.CategoryCounts(ctx, ownerID)
	if err != nil {
		log.WithError(err).Error("Failed to count incidents by category")
		return nil, fmt.Errorf("service: could not build analytics: %w", err)
	}

	since := s.now().UTC().AddDate(0, 0, -s.cfg.AnalyticsWindowDays)
	timeline, err := s.repo.Timeline(ctx, ownerID, since)
	if err != nil {
		log.WithError(err).Error("Failed to build timeline")
		return nil, fmt.Errorf("service: could not build analytics: %w", err)
	}

	summary, err := s.repo.OwnerSummary(ctx, ownerID)
	if err != nil {
		log.WithError(err).Error("Failed to get owner summary")
		return nil, fmt.Errorf("service: could not build analytics: %w", err)
	}

	return &models.Analytics{
		Categories: categories,
		Timeline:   timeline,
		Summary:    summary,
	}, nil
}

// Poll возвращает инциденты владельца новее курсора
func (s *incidentService) Poll(ctx context.Context, ownerID, lastID int64) ([]*models.Incident, error) {
	if lastID < 0 {
		lastID = 0
	}
	incidents, err := s.repo.ListByOwnerAfter(ctx, ownerID, lastID)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"service": "incident",
			"method":  "Poll",
			"user_id": ownerID,
			"last_id": lastID,
		}).WithError(err).Error("Failed to poll incidents")
		return nil, fmt.Errorf("service: could not poll incidents: %w", err)
	}
	return incidents, nil
}
