package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type ReservationStatus string

const (
	RESERVATION_PENDING   ReservationStatus = "pending"
	RESERVATION_PAID      ReservationStatus = "paid"
	RESERVATION_CANCELLED ReservationStatus = "cancelled"
)

type PaymentStatus string

const (
	PAYMENT_PENDING   PaymentStatus = "pending"
	PAYMENT_COMPLETED PaymentStatus = "paid"
)

type PaymentType string

const (
	PAYMENT_SESSION_PURCHASE   PaymentType = "session_purchase"
	PAYMENT_MEMBERSHIP_INITIAL PaymentType = "membership_initial"
)

// Service type tiers carried over from the catalog. Anything that is not a
// paired session prices as an individual one.
const (
	SERVICE_INDIVIDUAL = "Individual"
	SERVICE_PAREJA     = "Pareja"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

// CartItem is one selected (professional, slot, service type) tuple.
type CartItem struct {
	CompanionName  string   `json:"companion_name" binding:"required"`
	CompanionEmail string   `json:"companion_email,omitempty"`
	Date           string   `json:"date" binding:"required,bookabledate"`
	Time           string   `json:"time" binding:"required,slottime"`
	Duration       uint     `json:"duration,omitempty"`
	ServiceType    string   `json:"service_type,omitempty"`
	Price          *float64 `json:"price,omitempty"`
}

type BillingFields struct {
	Address    string `json:"address,omitempty"`
	Country    string `json:"country,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

type ContactFields struct {
	Name    string `json:"name,omitempty"`
	Surname string `json:"surname,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

type CreateCheckoutSessionRequestBody struct {
	ReservaID  *uint          `json:"reservaId,omitempty"`
	ReservaIDs []uint         `json:"reservaIds,omitempty"`
	Items      []CartItem     `json:"items,omitempty" binding:"omitempty,dive"`
	Contact    *ContactFields `json:"contact,omitempty"`
	Billing    *BillingFields `json:"billing,omitempty"`
}

type ConfirmPaymentRequestBody struct {
	SessionID string `json:"session_id" binding:"required"`
}

type CancelCheckoutRequestBody struct {
	SessionID string `json:"session_id" binding:"required"`
}

// UpdateReservationRequestBody either edits billing details or, when Status
// is "paid", replays the settlement for the reservation's checkout session.
type UpdateReservationRequestBody struct {
	Status    *string `json:"status,omitempty"`
	SessionID *string `json:"session_id,omitempty"`

	BillingFields
}
