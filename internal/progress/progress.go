// Package progress interprets the backend's per-lesson lock state. The
// server owns every transition; this side only reads, renders and
// enforces what the last fetch said.
package progress

import "strings"

// Status is the backend's verdict on whether a lesson may be opened.
type Status string

const (
	StatusLocked          Status = "locked"
	StatusPaymentRequired Status = "payment_required"
	StatusAvailable       Status = "available"
)

// LessonProgress is the read-only progress view attached to a lesson.
type LessonProgress struct {
	LessonID         string
	Status           Status
	AttemptsUsed     int
	LastScorePercent int
}

// CertificatePercent is the certificate-eligibility threshold. It is
// deliberately independent of the assessment pass threshold; the two are
// configured separately and neither implies the other.
const CertificatePercent = 50

// ParseStatus normalizes the backend's status spellings. Anything
// unrecognized is treated as locked: when in doubt, don't let the
// student skip ahead.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "available", "open", "unlocked":
		return StatusAvailable
	case "payment_required", "payment-required", "paymentrequired", "unpaid":
		return StatusPaymentRequired
	default:
		return StatusLocked
	}
}

// CanOpen reports whether navigation into the lesson is permitted.
func (s Status) CanOpen() bool {
	return s == StatusAvailable
}

// Reason returns the message shown when navigation is refused.
func (s Status) Reason() string {
	switch s {
	case StatusLocked:
		return "Finish the previous lesson's test to unlock this one."
	case StatusPaymentRequired:
		return "This lesson requires payment before it can be opened."
	default:
		return ""
	}
}

// CertificateEligible reports whether a score qualifies for the course
// certificate.
func CertificateEligible(scorePercent int) bool {
	return scorePercent >= CertificatePercent
}
