package v1

import (
	"encoding/json"
	"time"
)

// RegisterRequest DTO для регистрации
// @Description DTO для регистрации пользователя
type RegisterRequest struct {
	Username        string `json:"username" form:"username" validate:"required,max=50"`
	Email           string `json:"email" form:"email" validate:"required,max=254"`
	Password        string `json:"password" form:"password" validate:"required,max=128"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required,max=128"`
}

// LoginRequest DTO для входа пользователя или оператора
// @Description DTO для входа
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=50"`
	Password string `json:"password" form:"password" validate:"required,max=128"`
}

// CreateIncidentRequest DTO для создания инцидента
// @Description DTO для создания инцидента; координаты принимаются числом или строкой
type CreateIncidentRequest struct {
	IncidentType string      `json:"incident_type" form:"incident_type" validate:"required,incident_type"`
	Description  string      `json:"description" form:"description" validate:"required"`
	Latitude     json.Number `json:"latitude" form:"latitude" validate:"required" swaggertype:"number"`
	Longitude    json.Number `json:"longitude" form:"longitude" validate:"required" swaggertype:"number"`
}

// SOSRequest DTO для экстренного вызова
// @Description DTO для экстренного вызова; тип и описание необязательны
type SOSRequest struct {
	Latitude     json.Number `json:"latitude" form:"latitude" validate:"required" swaggertype:"number"`
	Longitude    json.Number `json:"longitude" form:"longitude" validate:"required" swaggertype:"number"`
	IncidentType string      `json:"incident_type,omitempty" form:"incident_type" validate:"omitempty,incident_type"`
	Description  string      `json:"description,omitempty" form:"description"`
}

// UpdateStatusRequest DTO для переключения статуса владельцем
// @Description DTO для переключения статуса: Pending или Resolved
type UpdateStatusRequest struct {
	Status string `json:"status" form:"status" validate:"required"`
}

// DispatchRequest DTO для назначения бригады
// @Description DTO для назначения бригады: police, ambulance, fire, swat
type DispatchRequest struct {
	Unit string `json:"unit" form:"unit" validate:"required,unit"`
}

// UserResponse DTO пользователя без хэша пароля
// @Description DTO пользователя
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse DTO для ответа на вход
// @Description DTO для ответа на вход
type LoginResponse struct {
	Success  bool   `json:"success"`
	Domain   string `json:"domain"`
	Username string `json:"username"`
}

// MessageResponse DTO для простого подтверждения
// @Description DTO для простого подтверждения
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID           int64     `json:"id"`
	IncidentType string    `json:"incident_type"`
	Description  string    `json:"description"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Status       string    `json:"status"`
	Unit         string    `json:"unit,omitempty"`
	DispatchNote string    `json:"dispatch_note,omitempty"`
	Priority     string    `json:"priority"`
	IsSOS        bool      `json:"is_sos"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IncidentListResponse DTO для списка и опроса инцидентов пользователя
// @Description DTO для списка инцидентов
type IncidentListResponse struct {
	Incidents []*IncidentResponse `json:"incidents"`
	Count     int                 `json:"count"`
}

// AlertResponse DTO инцидента в глобальном виде оператора
// @Description DTO инцидента с данными автора
type AlertResponse struct {
	IncidentResponse
	Username     string `json:"username"`
	Email        string `json:"email"`
	IsDispatched bool   `json:"is_dispatched"`
}

// AlertPollResponse DTO для опроса тревог
// @Description DTO для опроса тревог
type AlertPollResponse struct {
	Alerts []*AlertResponse `json:"alerts"`
	Count  int              `json:"count"`
}

// AlertStatsResponse DTO со статистикой SOS
// @Description DTO со статистикой SOS
type AlertStatsResponse struct {
	TotalAlerts      int `json:"total_alerts"`
	ActiveAlerts     int `json:"active_alerts"`
	DispatchedAlerts int `json:"dispatched_alerts"`
	ResolvedAlerts   int `json:"resolved_alerts"`
}

// DashboardResponse DTO панели оператора
// @Description DTO панели оператора
type DashboardResponse struct {
	Active   []*AlertResponse   `json:"active"`
	Resolved []*AlertResponse   `json:"resolved"`
	Stats    AlertStatsResponse `json:"stats"`
}

// SOSResponse DTO для ответа на экстренный вызов
// @Description DTO для ответа на экстренный вызов
type SOSResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	IncidentID int64  `json:"incident_id"`
}

// DispatchResponse DTO для подтверждения назначения бригады
// @Description DTO для подтверждения назначения бригады
type DispatchResponse struct {
	Success    bool   `json:"success"`
	IncidentID int64  `json:"incident_id"`
	Status     string `json:"status"`
	Unit       string `json:"unit"`
	Note       string `json:"note"`
}

// CategoryCountResponse DTO количества по типу
type CategoryCountResponse struct {
	IncidentType string `json:"incident_type"`
	Count        int    `json:"count"`
}

// DayCountResponse DTO количества за день
type DayCountResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// SummaryResponse DTO сводки по статусам
type SummaryResponse struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Resolved int `json:"resolved"`
}

// AnalyticsResponse DTO для аналитики пользователя
// @Description DTO для аналитики пользователя
type AnalyticsResponse struct {
	Categories []CategoryCountResponse `json:"categories"`
	Timeline   []DayCountResponse      `json:"timeline"`
	Summary    SummaryResponse         `json:"summary"`
}

// HealthResponse DTO для health-check
type HealthResponse struct {
	Status string `json:"status"`
}
