package models

// ReportInput - непроверенные поля отчёта в том виде, в каком их прислал клиент
type ReportInput struct {
	IncidentType string
	Description  string
	Latitude     string
	Longitude    string
}

// RegisterInput - непроверенные регистрационные данные
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}
