package models

// CategoryCount - количество инцидентов по типу
type CategoryCount struct {
	IncidentType string
	Count        int
}

// DayCount - количество инцидентов за день (дата в формате YYYY-MM-DD)
type DayCount struct {
	Date  string
	Count int
}

// OwnerSummary - сводка по инцидентам пользователя
type OwnerSummary struct {
	Total    int
	Pending  int
	Resolved int
}

// Analytics - агрегаты для /api/analytics
type Analytics struct {
	Categories []CategoryCount
	Timeline   []DayCount
	Summary    OwnerSummary
}

// AlertStats - сводка по SOS-инцидентам для панели оператора
type AlertStats struct {
	TotalAlerts      int
	ActiveAlerts     int
	DispatchedAlerts int
	ResolvedAlerts   int
}

// Dashboard - глобальный вид оператора
type Dashboard struct {
	Active   []*AlertIncident
	Resolved []*AlertIncident
	Stats    AlertStats
}
