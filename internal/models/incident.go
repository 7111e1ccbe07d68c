package models

import (
	"time"
)

// StatusKind - состояние инцидента в жизненном цикле
type StatusKind string

const (
	StatusPending    StatusKind = "Pending"
	StatusResolved   StatusKind = "Resolved"
	StatusHighAlert  StatusKind = "High Alert"
	StatusDispatched StatusKind = "Dispatched"
)

// Priority выводится из статуса и признака SOS, клиент её не задаёт
type Priority string

const (
	PriorityNormal   Priority = "Normal"
	PriorityCritical Priority = "Critical"
)

// Unit - тип выездной бригады
type Unit string

const (
	UnitPolice    Unit = "police"
	UnitAmbulance Unit = "ambulance"
	UnitFire      Unit = "fire"
	UnitSWAT      Unit = "swat"
)

var unitLabels = map[Unit]string{
	UnitPolice:    "Police Patrol",
	UnitAmbulance: "Ambulance",
	UnitFire:      "Fire Brigade",
	UnitSWAT:      "SWAT Team",
}

// Label возвращает человекочитаемое название бригады
func (u Unit) Label() string {
	if label, ok := unitLabels[u]; ok {
		return label
	}
	return string(u)
}

// Valid сообщает, входит ли бригада в фиксированный список
func (u Unit) Valid() bool {
	_, ok := unitLabels[u]
	return ok
}

// Units возвращает допустимые бригады в стабильном порядке
func Units() []Unit {
	return []Unit{UnitPolice, UnitAmbulance, UnitFire, UnitSWAT}
}

// Status - тегированный вариант: Unit и Note заполнены только для Dispatched
type Status struct {
	Kind StatusKind
	Unit Unit
	Note string
}

// String возвращает отображаемую строку статуса, например "Dispatched: Police Patrol"
func (s Status) String() string {
	if s.Kind == StatusDispatched && s.Unit != "" {
		return string(StatusDispatched) + ": " + s.Unit.Label()
	}
	return string(s.Kind)
}

// Dispatched сообщает, назначена ли бригада
func (s Status) Dispatched() bool {
	return s.Kind == StatusDispatched
}

type Incident struct {
	ID           int64
	OwnerID      int64
	IncidentType string
	Description  string
	Latitude     float64
	Longitude    float64
	Status       Status
	Priority     Priority
	IsSOS        bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Reporter - данные автора, доступные только операторам
type Reporter struct {
	Username string
	Email    string
}

// AlertIncident - инцидент глобальной выборки оператора
type AlertIncident struct {
	Incident
	Reporter Reporter
}
