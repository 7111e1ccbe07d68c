package v1

import "github.com/shenikar/surakshita/internal/models"

// ModelToUserResponse преобразует пользователя в DTO без хэша пароля
func ModelToUserResponse(model *models.User) *UserResponse {
	return &UserResponse{
		ID:        model.ID,
		Username:  model.Username,
		Email:     model.Email,
		CreatedAt: model.CreatedAt,
	}
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:           model.ID,
		IncidentType: model.IncidentType,
		Description:  model.Description,
		Latitude:     model.Latitude,
		Longitude:    model.Longitude,
		Status:       model.Status.String(),
		Unit:         string(model.Status.Unit),
		DispatchNote: model.Status.Note,
		Priority:     string(model.Priority),
		IsSOS:        model.IsSOS,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// ModelsToIncidentList преобразует слайс моделей в DTO списка
func ModelsToIncidentList(incidents []*models.Incident) *IncidentListResponse {
	responses := make([]*IncidentResponse, len(incidents))
	for i, model := range incidents {
		responses[i] = ModelToIncidentResponse(model)
	}
	return &IncidentListResponse{Incidents: responses, Count: len(responses)}
}

// ModelToAlertResponse добавляет к инциденту автора и признак назначенной бригады
func ModelToAlertResponse(model *models.AlertIncident) *AlertResponse {
	return &AlertResponse{
		IncidentResponse: *ModelToIncidentResponse(&model.Incident),
		Username:         model.Reporter.Username,
		Email:            model.Reporter.Email,
		IsDispatched:     model.Status.Dispatched(),
	}
}

// ModelsToAlertResponses преобразует слайс тревог в слайс DTO
func ModelsToAlertResponses(alerts []*models.AlertIncident) []*AlertResponse {
	responses := make([]*AlertResponse, len(alerts))
	for i, model := range alerts {
		responses[i] = ModelToAlertResponse(model)
	}
	return responses
}

// ModelToDashboardResponse преобразует глобальный вид оператора в DTO
func ModelToDashboardResponse(model *models.Dashboard) *DashboardResponse {
	return &DashboardResponse{
		Active:   ModelsToAlertResponses(model.Active),
		Resolved: ModelsToAlertResponses(model.Resolved),
		Stats: AlertStatsResponse{
			TotalAlerts:      model.Stats.TotalAlerts,
			ActiveAlerts:     model.Stats.ActiveAlerts,
			DispatchedAlerts: model.Stats.DispatchedAlerts,
			ResolvedAlerts:   model.Stats.ResolvedAlerts,
		},
	}
}

// ModelToAnalyticsResponse преобразует агрегаты в DTO
func ModelToAnalyticsResponse(model *models.Analytics) *AnalyticsResponse {
	resp := &AnalyticsResponse{
		Categories: make([]CategoryCountResponse, len(model.Categories)),
		Timeline:   make([]DayCountResponse, len(model.Timeline)),
		Summary: SummaryResponse{
			Total:    model.Summary.Total,
			Pending:  model.Summary.Pending,
			Resolved: model.Summary.Resolved,
		},
	}
	for i, c := range model.Categories {
		resp.Categories[i] = CategoryCountResponse{IncidentType: c.IncidentType, Count: c.Count}
	}
	for i, d := range model.Timeline {
		resp.Timeline[i] = DayCountResponse{Date: d.Date, Count: d.Count}
	}
	return resp
}

// DTOToReportInput переносит поля запроса создания в непроверенный ввод сервиса
func DTOToReportInput(dto any) models.ReportInput {
	switch v := dto.(type) {
	case CreateIncidentRequest:
		return models.ReportInput{
			IncidentType: v.IncidentType,
			Description:  v.Description,
			Latitude:     v.Latitude.String(),
			Longitude:    v.Longitude.String(),
		}
	case SOSRequest:
		return models.ReportInput{
			IncidentType: v.IncidentType,
			Description:  v.Description,
			Latitude:     v.Latitude.String(),
			Longitude:    v.Longitude.String(),
		}
	}
	return models.ReportInput{}
}
