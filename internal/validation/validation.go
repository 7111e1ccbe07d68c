// Package validation содержит чистые проверки пользовательского ввода.
//
// Проверка описаний - это denylist сигнатур внедрения разметки (теги script,
// схема javascript:, inline-обработчики событий), а не полноценная HTML-санитизация.
// Экранирование при выводе остаётся задачей слоя отображения.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shenikar/surakshita/internal/config"
	"github.com/shenikar/surakshita/internal/models"
	"github.com/shenikar/surakshita/pkg/e"
)

// CoordinatePrecision - число знаков после запятой (~11 м)
const CoordinatePrecision = 4

var incidentTypes = []string{
	"Harassment",
	"Stalking",
	"Assault",
	"Theft",
	"Suspicious Activity",
	"Unsafe Area",
	"Other",
	"SOS Emergency",
	"Emergency",
	"Threat",
}

var incidentTypeSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(incidentTypes))
	for _, t := range incidentTypes {
		set[t] = struct{}{}
	}
	return set
}()

var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script[^>]*>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
}

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	upperPattern    = regexp.MustCompile(`[A-Z]`)
	lowerPattern    = regexp.MustCompile(`[a-z]`)
	digitPattern    = regexp.MustCompile(`\d`)
)

// Policy - настраиваемая часть конвейера: зона обслуживания и длина описания
type Policy struct {
	Geofence       config.Geofence
	MaxDescription int
}

// NewPolicy создает Policy из конфигурации
func NewPolicy(cfg *config.Config) Policy {
	return Policy{Geofence: cfg.Geofence, MaxDescription: cfg.DescriptionMaxLength}
}

// Coordinates разбирает координаты, проверяет геозону и округляет до 4 знаков.
// Геозоне должны удовлетворять и исходные, и округлённые значения.
func (p Policy) Coordinates(latRaw, lonRaw string) (float64, float64, error) {
	lat, errLat := parseCoordinate(latRaw)
	lon, errLon := parseCoordinate(lonRaw)
	if errLat != nil || errLon != nil {
		return 0, 0, e.Invalid("location", "Invalid coordinate format")
	}
	qLat, qLon := Quantize(lat), Quantize(lon)
	if !p.inside(lat, lon) || !p.inside(qLat, qLon) {
		return 0, 0, e.Invalid("location", "Services are currently only available within the configured service region.")
	}
	return qLat, qLon, nil
}

func (p Policy) inside(lat, lon float64) bool {
	g := p.Geofence
	return lat >= g.MinLat && lat <= g.MaxLat && lon >= g.MinLon && lon <= g.MaxLon
}

func parseCoordinate(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("coordinate %q is not finite", raw)
	}
	return v, nil
}

// Quantize необратимо округляет координату до CoordinatePrecision знаков
func Quantize(v float64) float64 {
	scale := math.Pow10(CoordinatePrecision)
	return math.Round(v*scale) / scale
}

// Description проверяет текст описания инцидента
func (p Policy) Description(description string) error {
	if strings.TrimSpace(description) == "" {
		return e.Invalid("description", "Description cannot be empty")
	}
	if utf8.RuneCountInString(description) > p.MaxDescription {
		return e.Invalid("description", fmt.Sprintf("Description must be %d characters or less", p.MaxDescription))
	}
	for _, pattern := range suspiciousPatterns {
		if pattern.MatchString(description) {
			return e.Invalid("description", "Description contains invalid content")
		}
	}
	return nil
}

// IncidentType проверяет тип по белому списку
func IncidentType(incidentType string) error {
	if _, ok := incidentTypeSet[incidentType]; !ok {
		return e.Invalid("incident_type", "Invalid incident type. Must be one of: "+strings.Join(incidentTypes, ", "))
	}
	return nil
}

// IncidentTypes возвращает белый список типов
func IncidentTypes() []string {
	out := make([]string, len(incidentTypes))
	copy(out, incidentTypes)
	return out
}

// Unit проверяет идентификатор бригады
func Unit(raw string) (models.Unit, error) {
	unit := models.Unit(strings.ToLower(strings.TrimSpace(raw)))
	if !unit.Valid() {
		names := make([]string, 0, len(models.Units()))
		for _, u := range models.Units() {
			names = append(names, string(u))
		}
		return "", e.Invalid("unit", "Invalid unit. Must be one of: "+strings.Join(names, ", "))
	}
	return unit, nil
}

// Username проверяет длину и набор символов
func Username(username string) error {
	if len(username) < 3 {
		return e.Invalid("username", "Username must be at least 3 characters")
	}
	if len(username) > 50 {
		return e.Invalid("username", "Username must be 50 characters or less")
	}
	if !usernamePattern.MatchString(username) {
		return e.Invalid("username", "Username can only contain letters, numbers, underscores, and hyphens")
	}
	return nil
}

// Email проверяет формат консервативным шаблоном
func Email(email string) error {
	if !emailPattern.MatchString(email) {
		return e.Invalid("email", "Invalid email format")
	}
	if len(email) > 254 {
		return e.Invalid("email", "Email address too long")
	}
	return nil
}

// Password проверяет длину и наличие классов символов
func Password(password string) error {
	if len(password) < 8 {
		return e.Invalid("password", "Password must be at least 8 characters")
	}
	if len(password) > 128 {
		return e.Invalid("password", "Password must be 128 characters or less")
	}
	if !upperPattern.MatchString(password) || !lowerPattern.MatchString(password) || !digitPattern.MatchString(password) {
		return e.Invalid("password", "Password must contain uppercase, lowercase, and numbers")
	}
	return nil
}

// Credentials проверяет регистрационные данные целиком
func Credentials(username, email, password, confirm string) error {
	if username == "" || email == "" || password == "" {
		return e.Invalid("", "All fields are required.")
	}
	if err := Username(username); err != nil {
		return err
	}
	if err := Email(email); err != nil {
		return err
	}
	if err := Password(password); err != nil {
		return err
	}
	if password != confirm {
		return e.Invalid("confirm_password", "Passwords do not match.")
	}
	return nil
}

// Sanitize удаляет NUL-байты, пробелы по краям и обрезает до limit символов
func Sanitize(text string, limit int) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.TrimSpace(text)
	if limit > 0 && utf8.RuneCountInString(text) > limit {
		text = string([]rune(text)[:limit])
	}
	return text
}

var statusNames = map[string]models.StatusKind{
	"pending":    models.StatusPending,
	"resolved":   models.StatusResolved,
	"high alert": models.StatusHighAlert,
	"high_alert": models.StatusHighAlert,
	"dispatched": models.StatusDispatched,
}

// Status разбирает имя статуса без учёта регистра
func Status(raw string) (models.StatusKind, error) {
	kind, ok := statusNames[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", e.Invalid("status", "Invalid status.")
	}
	return kind, nil
}

// StatusFilter разбирает фильтр списка; пустое значение и "all" означают без фильтра
func StatusFilter(raw string) (*models.StatusKind, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "all") {
		return nil, nil
	}
	kind, err := Status(trimmed)
	if err != nil {
		return nil, err
	}
	return &kind, nil
}
