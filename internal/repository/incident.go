package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shenikar/surakshita/internal/lifecycle"
	"github.com/shenikar/surakshita/internal/models"
	"github.com/shenikar/surakshita/internal/service"
	"github.com/shenikar/surakshita/pkg/e"
)

// DB - общий интерфейс pgxpool.Pool и pgx.Tx
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const incidentColumns = `
	i.id,
	i.user_id,
	i.incident_type,
	i.description,
	i.latitude,
	i.longitude,
	i.status,
	i.dispatch_unit,
	i.dispatch_note,
	i.priority,
	i.is_sos,
	i.created_at,
	i.updated_at`

const alertColumns = incidentColumns + `,
	u.username,
	u.email`

// alertPredicate - инциденты, которые видит оператор в глобальных выборках
const alertPredicate = `(i.is_sos OR i.status IN ('High Alert', 'Dispatched'))`

type IncidentRepository struct {
	db DB
}

func NewIncidentRepository(db DB) service.IncidentRepository {
	return &IncidentRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIncident(row scanner, extra ...any) (*models.Incident, error) {
	incident := &models.Incident{}
	var (
		status   string
		priority string
		unit     *string
		note     *string
	)
	dest := []any{
		&incident.ID,
		&incident.OwnerID,
		&incident.IncidentType,
		&incident.Description,
		&incident.Latitude,
		&incident.Longitude,
		&status,
		&unit,
		&note,
		&priority,
		&incident.IsSOS,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	incident.Status = models.Status{Kind: models.StatusKind(status)}
	if unit != nil {
		incident.Status.Unit = models.Unit(*unit)
	}
	if note != nil {
		incident.Status.Note = *note
	}
	incident.Priority = models.Priority(priority)
	return incident, nil
}

func scanAlert(row scanner) (*models.AlertIncident, error) {
	alert := &models.AlertIncident{}
	incident, err := scanIncident(row, &alert.Reporter.Username, &alert.Reporter.Email)
	if err != nil {
		return nil, err
	}
	alert.Incident = *incident
	return alert, nil
}

func collectIncidents(rows pgx.Rows, op string) ([]*models.Incident, error) {
	defer rows.Close()
	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, e.WrapError(op+": scan", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, e.WrapError(op+": iteration", err)
	}
	return incidents, nil
}

func collectAlerts(rows pgx.Rows, op string) ([]*models.AlertIncident, error) {
	defer rows.Close()
	alerts := make([]*models.AlertIncident, 0)
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, e.WrapError(op+": scan", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, e.WrapError(op+": iteration", err)
	}
	return alerts, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func statusParam(status *models.StatusKind) *string {
	if status == nil {
		return nil
	}
	s := string(*status)
	return &s
}

// Create создает новую запись об инциденте в бд
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	query := `
		INSERT INTO incidents (user_id, incident_type, description, latitude, longitude, status, dispatch_unit, dispatch_note, priority, is_sos)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id, created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		incident.OwnerID,
		incident.IncidentType,
		incident.Description,
		incident.Latitude,
		incident.Longitude,
		string(incident.Status.Kind),
		nullableString(string(incident.Status.Unit)),
		nullableString(incident.Status.Note),
		string(incident.Priority),
		incident.IsSOS,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return e.WrapError("failed to create incident", err)
	}
	return nil
}

// GetByID возвращает инцидент по id без ограничения по владельцу
func (r *IncidentRepository) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents i WHERE i.id = $1;`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, e.WrapError(fmt.Sprintf("failed to get incident %d", id), err)
	}
	return incident, nil
}

// GetForOwner возвращает инцидент, только если он принадлежит ownerID
func (r *IncidentRepository) GetForOwner(ctx context.Context, id, ownerID int64) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents i WHERE i.id = $1 AND i.user_id = $2;`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		return nil, e.WrapError(fmt.Sprintf("failed to get incident %d for owner", id), err)
	}
	return incident, nil
}

// ListByOwner возвращает инциденты владельца, новые первыми
func (r *IncidentRepository) ListByOwner(ctx context.Context, ownerID int64, status *models.StatusKind) ([]*models.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents i
		WHERE i.user_id = $1 AND ($2::text IS NULL OR i.status = $2)
		ORDER BY i.created_at DESC, i.id DESC;
	`
	rows, err := r.db.Query(ctx, query, ownerID, statusParam(status))
	if err != nil {
		return nil, e.WrapError("failed to list incidents by owner", err)
	}
	return collectIncidents(rows, "failed to list incidents by owner")
}

// ListByOwnerAfter возвращает инциденты владельца с id > lastID по убыванию id
func (r *IncidentRepository) ListByOwnerAfter(ctx context.Context, ownerID, lastID int64) ([]*models.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents i
		WHERE i.user_id = $1 AND i.id > $2
		ORDER BY i.id DESC;
	`
	rows, err := r.db.Query(ctx, query, ownerID, lastID)
	if err != nil {
		return nil, e.WrapError("failed to poll incidents", err)
	}
	return collectIncidents(rows, "failed to poll incidents")
}

// ListGlobal возвращает все инциденты с данными автора, новые первыми
func (r *IncidentRepository) ListGlobal(ctx context.Context, status *models.StatusKind) ([]*models.AlertIncident, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM incidents i
		JOIN users u ON i.user_id = u.id
		WHERE $1::text IS NULL OR i.status = $1
		ORDER BY i.created_at DESC, i.id DESC;
	`
	rows, err := r.db.Query(ctx, query, statusParam(status))
	if err != nil {
		return nil, e.WrapError("failed to list incidents", err)
	}
	return collectAlerts(rows, "failed to list incidents")
}

// ListAlertsAfter возвращает тревоги с id > lastID по убыванию id
func (r *IncidentRepository) ListAlertsAfter(ctx context.Context, lastID int64) ([]*models.AlertIncident, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM incidents i
		JOIN users u ON i.user_id = u.id
		WHERE ` + alertPredicate + ` AND i.id > $1
		ORDER BY i.id DESC;
	`
	rows, err := r.db.Query(ctx, query, lastID)
	if err != nil {
		return nil, e.WrapError("failed to poll alerts", err)
	}
	return collectAlerts(rows, "failed to poll alerts")
}

// ListActiveAlerts возвращает незакрытые тревоги
func (r *IncidentRepository) ListActiveAlerts(ctx context.Context) ([]*models.AlertIncident, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM incidents i
		JOIN users u ON i.user_id = u.id
		WHERE ` + alertPredicate + ` AND i.status <> 'Resolved'
		ORDER BY i.created_at DESC, i.id DESC;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, e.WrapError("failed to list active alerts", err)
	}
	return collectAlerts(rows, "failed to list active alerts")
}

// ListResolvedAlerts возвращает закрытые SOS-инциденты
func (r *IncidentRepository) ListResolvedAlerts(ctx context.Context) ([]*models.AlertIncident, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM incidents i
		JOIN users u ON i.user_id = u.id
		WHERE i.is_sos AND i.status = 'Resolved'
		ORDER BY i.updated_at DESC, i.id DESC;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, e.WrapError("failed to list resolved alerts", err)
	}
	return collectAlerts(rows, "failed to list resolved alerts")
}

// AlertStats считает SOS-инциденты по состояниям
func (r *IncidentRepository) AlertStats(ctx context.Context) (models.AlertStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'High Alert'),
			COUNT(*) FILTER (WHERE status = 'Dispatched'),
			COUNT(*) FILTER (WHERE status = 'Resolved')
		FROM incidents
		WHERE is_sos;
	`
	var stats models.AlertStats
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.TotalAlerts,
		&stats.ActiveAlerts,
		&stats.DispatchedAlerts,
		&stats.ResolvedAlerts,
	)
	if err != nil {
		return models.AlertStats{}, e.WrapError("failed to get alert stats", err)
	}
	return stats, nil
}

// ApplyTransition применяет переход одним условным UPDATE.
// Если id, владелец, текущий статус или признак SOS не совпали, не меняется ни одна строка.
func (r *IncidentRepository) ApplyTransition(ctx context.Context, id int64, t lifecycle.Transition) (*models.Incident, error) {
	from := make([]string, len(t.From()))
	for i, k := range t.From() {
		from[i] = string(k)
	}

	var owner *int64
	if ownerID, scoped := t.OwnerID(); scoped {
		owner = &ownerID
	}

	to := t.To()
	query := `
		UPDATE incidents i SET
			status = $2,
			dispatch_unit = $3,
			dispatch_note = $4,
			priority = CASE WHEN i.is_sos THEN 'Critical' ELSE $5::text END,
			updated_at = $6
		WHERE i.id = $1
			AND i.status = ANY($7::text[])
			AND ($8::bigint IS NULL OR i.user_id = $8)
			AND (NOT $9::boolean OR NOT i.is_sos)
		RETURNING ` + incidentColumns + `;
	`
	incident, err := scanIncident(r.db.QueryRow(ctx, query,
		id,
		string(to.Kind),
		nullableString(string(to.Unit)),
		nullableString(to.Note),
		string(t.Priority(false)),
		t.At(),
		from,
		owner,
		t.NonSOSOnly(),
	))
	if err != nil {
		return nil, e.WrapError(fmt.Sprintf("failed to apply transition to incident %d", id), err)
	}
	return incident, nil
}

// DeleteByOwner удаляет инцидент; чужой или несуществующий id даёт ErrNotFound
func (r *IncidentRepository) DeleteByOwner(ctx context.Context, id, ownerID int64) error {
	query := `DELETE FROM incidents WHERE id = $1 AND user_id = $2;`
	cmdTag, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return e.WrapError("failed to delete incident", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident with id %d not found for delete: %w", id, e.ErrNotFound)
	}
	return nil
}

// CategoryCounts группирует инциденты владельца по типу
func (r *IncidentRepository) CategoryCounts(ctx context.Context, ownerID int64) ([]models.CategoryCount, error) {
	query := `
		SELECT incident_type, COUNT(*) AS count
		FROM incidents
		WHERE user_id = $1
		GROUP BY incident_type
		ORDER BY count DESC, incident_type ASC;
	`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, e.WrapError("failed to count incidents by category", err)
	}
	defer rows.Close()

	counts := make([]models.CategoryCount, 0)
	for rows.Next() {
		var c models.CategoryCount
		if err := rows.Scan(&c.IncidentType, &c.Count); err != nil {
			return nil, e.WrapError("failed to scan category count", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, e.WrapError("error category iteration", err)
	}
	return counts, nil
}

// Timeline группирует инциденты владельца по дням начиная с since
func (r *IncidentRepository) Timeline(ctx context.Context, ownerID int64, since time.Time) ([]models.DayCount, error) {
	query := `
		SELECT to_char(date_trunc('day', created_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD') AS day, COUNT(*)
		FROM incidents
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY day
		ORDER BY day ASC;
	`
	rows, err := r.db.Query(ctx, query, ownerID, since)
	if err != nil {
		return nil, e.WrapError("failed to build timeline", err)
	}
	defer rows.Close()

	days := make([]models.DayCount, 0)
	for rows.Next() {
		var d models.DayCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, e.WrapError("failed to scan timeline row", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, e.WrapError("error timeline iteration", err)
	}
	return days, nil
}

// OwnerSummary считает инциденты владельца по статусам
func (r *IncidentRepository) OwnerSummary(ctx context.Context, ownerID int64) (models.OwnerSummary, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'Pending'),
			COUNT(*) FILTER (WHERE status = 'Resolved')
		FROM incidents
		WHERE user_id = $1;
	`
	var summary models.OwnerSummary
	if err := r.db.QueryRow(ctx, query, ownerID).Scan(&summary.Total, &summary.Pending, &summary.Resolved); err != nil {
		return models.OwnerSummary{}, e.WrapError("failed to get owner summary", err)
	}
	return summary, nil
}
