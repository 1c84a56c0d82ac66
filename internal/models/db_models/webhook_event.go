package db_models

import (
	"gorm.io/datatypes"
)

// WebhookEvent logs every gateway callback by its provider-assigned id.
// The unique index is what makes replayed deliveries no-ops: the insert
// fails and the handler acks without touching any state.
type WebhookEvent struct {
	BaseModel
	Provider        string `gorm:"index"`
	ProviderEventID string `gorm:"uniqueIndex"`
	EventType       string `gorm:"index"`

	Payload     datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	ProcessedAt *int64
}
