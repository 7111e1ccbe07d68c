// Package lifecycle описывает допустимые переходы состояний инцидента.
//
// Хранилище применяет только значения Transition, построенные здесь, поэтому
// status, priority и is_sos меняются исключительно через этот пакет.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/shenikar/surakshita/internal/models"
	"github.com/shenikar/surakshita/pkg/e"
)

const (
	DefaultSOSType        = "SOS Emergency"
	DefaultSOSDescription = "Emergency SOS alert triggered"
)

// Transition - условная запись: применяется, только если текущий статус входит в From
type Transition struct {
	from    []models.StatusKind
	to      models.Status
	ownerID int64
	nonSOS  bool
	at      time.Time
}

// From возвращает статусы, из которых допустим переход
func (t Transition) From() []models.StatusKind { return t.from }

// To возвращает целевой статус
func (t Transition) To() models.Status { return t.to }

// OwnerID возвращает владельца, если переход ограничен его инцидентами
func (t Transition) OwnerID() (int64, bool) { return t.ownerID, t.ownerID != 0 }

// NonSOSOnly сообщает, что переход запрещён для SOS-инцидентов
func (t Transition) NonSOSOnly() bool { return t.nonSOS }

// At - момент перехода, записывается в updated_at
func (t Transition) At() time.Time { return t.at }

// Priority возвращает приоритет после перехода для инцидента с данным признаком SOS
func (t Transition) Priority(isSOS bool) models.Priority {
	return PriorityFor(t.to.Kind, isSOS)
}

// PriorityFor выводит приоритет из статуса и признака SOS
func PriorityFor(kind models.StatusKind, isSOS bool) models.Priority {
	if isSOS || kind == models.StatusHighAlert || kind == models.StatusDispatched {
		return models.PriorityCritical
	}
	return models.PriorityNormal
}

// Permits сообщает, применим ли переход к инциденту в его текущем состоянии
func (t Transition) Permits(inc *models.Incident) bool {
	if inc == nil {
		return false
	}
	if owner, scoped := t.OwnerID(); scoped && inc.OwnerID != owner {
		return false
	}
	if t.nonSOS && inc.IsSOS {
		return false
	}
	for _, k := range t.from {
		if inc.Status.Kind == k {
			return true
		}
	}
	return false
}

// Machine строит начальные состояния и переходы
type Machine struct {
	now func() time.Time
}

// New создает Machine; now задаёт часы (nil - time.Now)
func New(now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{now: now}
}

// NewReport - обычный отчёт: Pending, Normal
func (m *Machine) NewReport(ownerID int64, incidentType, description string, lat, lon float64) *models.Incident {
	return &models.Incident{
		OwnerID:      ownerID,
		IncidentType: incidentType,
		Description:  description,
		Latitude:     lat,
		Longitude:    lon,
		Status:       models.Status{Kind: models.StatusPending},
		Priority:     PriorityFor(models.StatusPending, false),
	}
}

// NewSOS - экстренный вызов: High Alert, Critical, is_sos
func (m *Machine) NewSOS(ownerID int64, incidentType, description string, lat, lon float64) *models.Incident {
	if incidentType == "" {
		incidentType = DefaultSOSType
	}
	if description == "" {
		description = DefaultSOSDescription
	}
	return &models.Incident{
		OwnerID:      ownerID,
		IncidentType: incidentType,
		Description:  description,
		Latitude:     lat,
		Longitude:    lon,
		Status:       models.Status{Kind: models.StatusHighAlert},
		Priority:     models.PriorityCritical,
		IsSOS:        true,
	}
}

// OwnerToggle - переключение Pending <-> Resolved владельцем
func (m *Machine) OwnerToggle(ownerID int64, target models.StatusKind) (Transition, error) {
	if ownerID <= 0 {
		return Transition{}, fmt.Errorf("lifecycle: owner toggle without owner: %w", e.ErrUnauthenticated)
	}
	switch target {
	case models.StatusResolved:
		return Transition{
			from:    []models.StatusKind{models.StatusPending},
			to:      models.Status{Kind: models.StatusResolved},
			ownerID: ownerID,
			at:      m.now().UTC(),
		}, nil
	case models.StatusPending:
		return Transition{
			from:    []models.StatusKind{models.StatusResolved},
			to:      models.Status{Kind: models.StatusPending},
			ownerID: ownerID,
			nonSOS:  true,
			at:      m.now().UTC(),
		}, nil
	default:
		return Transition{}, e.Invalid("status", "Invalid status.")
	}
}

// Dispatch - назначение бригады оператором; повторный вызов перезаписывает бригаду
func (m *Machine) Dispatch(unit models.Unit) (Transition, error) {
	if !unit.Valid() {
		return Transition{}, e.Invalid("unit", fmt.Sprintf("Invalid unit %q", string(unit)))
	}
	at := m.now().UTC()
	return Transition{
		from: []models.StatusKind{models.StatusPending, models.StatusHighAlert, models.StatusDispatched},
		to: models.Status{
			Kind: models.StatusDispatched,
			Unit: unit,
			Note: DispatchNote(unit, at),
		},
		at: at,
	}, nil
}

// Resolve - глобальное закрытие инцидента оператором
func (m *Machine) Resolve() Transition {
	return Transition{
		from: []models.StatusKind{models.StatusPending, models.StatusHighAlert, models.StatusDispatched},
		to:   models.Status{Kind: models.StatusResolved},
		at:   m.now().UTC(),
	}
}

// DispatchNote формирует заметку диспетчера: бригада и время
func DispatchNote(unit models.Unit, at time.Time) string {
	return fmt.Sprintf("%s dispatched at %s", unit.Label(), at.UTC().Format(time.RFC3339))
}

// Rejected возвращает ошибку для перехода, не применимого к текущему состоянию
func Rejected(t Transition, current *models.Incident) error {
	return e.Invalid("status", fmt.Sprintf("cannot move incident from %s to %s", current.Status.Kind, t.to.Kind))
}
