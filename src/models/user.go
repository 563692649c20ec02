package models

import (
	"sbs/src/types"
)

type User struct {
	ID               uint    `gorm:"primarykey" json:"id"`
	Name             string  `json:"name,omitempty"`
	Email            string  `json:"email,omitempty"`
	UID              string  `json:"uid,omitempty"`
	StripeCustomerId *string `json:"-"`

	Reservations []Reservation `gorm:"foreignKey:user_id" json:"reservations,omitempty"`

	types.Timestamps
}
