package models

import (
	"sbs/src/types"
)

// Reservation is one bookable appointment slot between a client and a
// companion. It is the single source of truth for the booking lifecycle:
// created pending, settled to paid, or cancelled (terminal).
type Reservation struct {
	ID     uint  `gorm:"primarykey" json:"id"`
	UserID *uint `json:"user_id,omitempty"`

	Name    string `json:"name,omitempty"`
	Surname string `json:"surname,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`

	CompanionName  string `json:"companion_name,omitempty"`
	CompanionEmail string `json:"companion_email,omitempty"`

	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
	Duration    uint   `json:"duration,omitempty"`
	ServiceType string `json:"service_type,omitempty"`

	Address    string `json:"address,omitempty"`
	Country    string `json:"country,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`

	PricePaid         *float64 `json:"price_paid,omitempty"`
	CalendarEventId   *string  `json:"calendar_event_id,omitempty"`
	CheckoutSessionId *string  `json:"checkout_session_id,omitempty"`

	Status       types.ReservationStatus `gorm:"default:'pending'" json:"status,omitempty"`
	CancelReason string                  `json:"cancel_reason,omitempty"`

	User *User `gorm:"foreignKey:user_id" json:"user,omitempty"`

	types.Timestamps
}
