package domain

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RolePatient   = "Patient"
	RoleCaretaker = "Caretaker"
)

// Alert types
const (
	AlertTypeManual      = "Manual"
	AlertTypeAuto        = "Auto"
	AlertTypeSensorFault = "Sensor_Fault"
)

// Alert severities
const (
	SeverityLow      = "Low"
	SeverityMedium   = "Medium"
	SeverityHigh     = "High"
	SeverityCritical = "Critical"
)

// User represents a registered patient or caretaker. The role is fixed at
// registration.
type User struct {
	gorm.Model
	Name   string
	Age    int
	Gender string
	Email  string `gorm:"uniqueIndex"`
	Phone  string
	Role   string `gorm:"index"`
}

// Reading is one observed sensor sample for a patient. Readings are
// append-only and never mutated after creation. Heart rate is the only field
// the classifier requires; everything else may be absent.
type Reading struct {
	gorm.Model
	PatientID   uint `gorm:"index"`
	BPM         *float64
	RRInterval  *float64 // ms
	SpO2        *float64 // percent
	Temperature *float64 // °C
	AccelX      *float64
	AccelY      *float64
	AccelZ      *float64
	RawValues   string
	Latitude    *float64
	Longitude   *float64
	SensorFault bool
}

// Alert is a derived or manually triggered alert record. Content is immutable
// once created; only the read flag is flipped by caretaker acknowledgement.
type Alert struct {
	gorm.Model
	EventID   string `gorm:"uniqueIndex"`
	PatientID uint   `gorm:"index"`
	AlertType string
	Severity  string
	Message   string
	IsRead    bool
	Latitude  *float64
	Longitude *float64
}

// Assignment links a caretaker to a patient they monitor. Unique per pair;
// it is the authorization boundary for caretaker reads.
type Assignment struct {
	gorm.Model
	CaretakerID uint `gorm:"uniqueIndex:idx_caretaker_patient"`
	PatientID   uint `gorm:"uniqueIndex:idx_caretaker_patient;index"`
	AssignedAt  time.Time
}

// Guardian is an emergency contact for a patient, independent of caretaker
// assignments. Used only by manual distress broadcasts.
type Guardian struct {
	gorm.Model
	PatientID uint   `gorm:"uniqueIndex:idx_guardian_patient_email"`
	Name      string
	Email     string `gorm:"uniqueIndex:idx_guardian_patient_email"`
}
