package utils

import (
	"errors"
	"fmt"
	"time"

	"sbs/src/db"
	"sbs/src/models"
	"sbs/src/types"

	"gorm.io/gorm"
)

// CreateReservation inserts a pending draft. Contact and slot fields are the
// minimum needed to later settle and calendar the appointment.
func CreateReservation(draft *models.Reservation) (*models.Reservation, error) {
	switch {
	case draft.Name == "":
		return nil, fmt.Errorf("%w: name is required", types.ErrValidation)
	case draft.Email == "":
		return nil, fmt.Errorf("%w: email is required", types.ErrValidation)
	case draft.CompanionName == "":
		return nil, fmt.Errorf("%w: companion name is required", types.ErrValidation)
	case draft.Date == "":
		return nil, fmt.Errorf("%w: date is required", types.ErrValidation)
	case draft.Time == "":
		return nil, fmt.Errorf("%w: time is required", types.ErrValidation)
	}
	draft.Status = types.RESERVATION_PENDING
	db := db.GetDb()
	if err := db.Create(draft).Error; err != nil {
		return nil, err
	}
	return draft, nil
}

func GetReservation(id uint) (*models.Reservation, error) {
	var r models.Reservation
	db := db.GetDb()
	err := db.
		Model(&models.Reservation{}).
		Where("id = ?", id).
		First(&r).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateReservationBilling edits billing fields while the reservation is
// still pending or already paid. Cancelled rows are frozen.
func UpdateReservationBilling(id uint, billing *types.BillingFields) (*models.Reservation, error) {
	var r models.Reservation
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrNotFound
			}
			return err
		}
		if r.Status == types.RESERVATION_CANCELLED {
			return fmt.Errorf("%w: billing cannot change after cancellation", types.ErrInvalidState)
		}
		// Struct-based Updates skips zero values, so a partial body only
		// touches the fields it carries.
		changes := models.Reservation{
			Address:    billing.Address,
			Country:    billing.Country,
			City:       billing.City,
			PostalCode: billing.PostalCode,
		}
		if changes.Address == "" && changes.Country == "" && changes.City == "" && changes.PostalCode == "" {
			return nil
		}
		if err := tx.
			Model(&models.Reservation{}).
			Where("id = ?", id).
			Updates(changes).
			Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&r).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// markPaidTx runs the compare-and-set paid transition inside tx. The UPDATE
// only matches a pending row, so the poll and webhook paths racing on the
// same session converge: the loser observes an already-paid row with the
// matching session reference and reports changed=false.
func markPaidTx(tx *gorm.DB, id uint, sessionID string, calendarRef string, pricePaid float64) (*models.Reservation, bool, error) {
	res := tx.
		Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, types.RESERVATION_PENDING).
		Updates(map[string]any{
			"status":              types.RESERVATION_PAID,
			"calendar_event_id":   calendarRef,
			"price_paid":          pricePaid,
			"checkout_session_id": sessionID,
		})
	if res.Error != nil {
		return nil, false, res.Error
	}
	var r models.Reservation
	if err := tx.Where("id = ?", id).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, types.ErrNotFound
		}
		return nil, false, err
	}
	if res.RowsAffected > 0 {
		return &r, true, nil
	}
	switch {
	case r.Status == types.RESERVATION_CANCELLED:
		return nil, false, fmt.Errorf("%w: reservation %d is cancelled and cannot become paid", types.ErrInvalidState, id)
	case r.Status == types.RESERVATION_PAID && r.CheckoutSessionId != nil && *r.CheckoutSessionId == sessionID:
		// Duplicate delivery, nothing to do.
		return &r, false, nil
	default:
		return nil, false, fmt.Errorf("%w: reservation %d already paid through another session", types.ErrInvalidState, id)
	}
}

// TransitionToPaid is the store-level paid transition. The bool reports
// whether this call performed it, false meaning an idempotent replay.
func TransitionToPaid(id uint, sessionID string, calendarRef string, pricePaid float64) (*models.Reservation, bool, error) {
	var r *models.Reservation
	changed := false
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		row, ch, err := markPaidTx(tx, id, sessionID, calendarRef, pricePaid)
		if err != nil {
			return err
		}
		r = row
		changed = ch
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return r, changed, nil
}

// TransitionToCancelled moves a reservation into its terminal state. The
// guard lives in the WHERE clause so racing callers cannot double-cancel.
func TransitionToCancelled(id uint, reason string) (*models.Reservation, error) {
	var r models.Reservation
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.Reservation{}).
			Where("id = ? AND status <> ?", id, types.RESERVATION_CANCELLED).
			Updates(map[string]any{
				"status":        types.RESERVATION_CANCELLED,
				"cancel_reason": reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if err := tx.Where("id = ?", id).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrNotFound
			}
			return err
		}
		if res.RowsAffected == 0 {
			return types.ErrAlreadyCancelled
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteReservation discards an abandoned draft. Only pending rows qualify;
// anything settled or cancelled stays on record.
func DeleteReservation(id uint) error {
	db := db.GetDb()
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Where("id = ? AND status = ?", id, types.RESERVATION_PENDING).
			Delete(&models.Reservation{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		var r models.Reservation
		if err := tx.Where("id = ?", id).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrNotFound
			}
			return err
		}
		return fmt.Errorf("%w: only pending drafts can be discarded", types.ErrInvalidState)
	})
}

// ListReservationsForUser returns the upcoming/past projection for the "mine"
// view. The partition is computed per request, not stored.
func ListReservationsForUser(identity Identity) (upcoming []models.Reservation, past []models.Reservation, err error) {
	var rows []models.Reservation
	db := db.GetDb()
	err = db.
		Model(&models.Reservation{}).
		Where("user_id = ? OR lower(email) = lower(?)", identity.UserID, identity.Email).
		Find(&rows).
		Error
	if err != nil {
		return nil, nil, err
	}
	upcoming, past = PartitionReservations(rows, time.Now())
	return upcoming, past, nil
}
