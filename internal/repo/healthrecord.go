package repo

import (
	"time"

	"github.com/google/uuid"
)

type RecordKind string

const (
	RecordHistory      RecordKind = "history"
	RecordTreatment    RecordKind = "treatment"
	RecordPrescription RecordKind = "prescription"
)

func (k RecordKind) Valid() bool {
	switch k {
	case RecordHistory, RecordTreatment, RecordPrescription:
		return true
	}
	return false
}

// HealthRecord entries are append-only.
type HealthRecord struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Kind          RecordKind `json:"kind"`
	Content       string     `json:"content"`
	AttachmentKey *string    `json:"attachment_key,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
