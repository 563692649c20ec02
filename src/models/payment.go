package models

import (
	"sbs/src/types"
)

// PaymentHistory is an append-only audit log. Rows are inserted when a
// checkout session settles and are never updated afterwards.
type PaymentHistory struct {
	ID     uint  `gorm:"primarykey" json:"id"`
	UserID *uint `json:"user_id,omitempty"`

	Email           string  `json:"email,omitempty"`
	ReferenceID     string  `json:"reference_id,omitempty"`
	PaymentIntentId *string `json:"-"`

	Amount   float64             `json:"amount"`
	Currency string              `json:"currency,omitempty"`
	Type     types.PaymentType   `json:"type,omitempty"`
	Status   types.PaymentStatus `json:"status,omitempty"`

	Metadata types.JSONB `gorm:"type:jsonb" json:"metadata,omitempty"`

	types.Timestamps
}
