package utils

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"sbs/src/config"
	"sbs/src/db"
	"sbs/src/lib"
	"sbs/src/models"
	"sbs/src/types"

	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

type SettlementResult struct {
	Settled      bool                 `json:"settled"`
	Reservations []models.Reservation `json:"reservations,omitempty"`
}

// SettleCheckoutSession is the single place a reservation becomes paid. Both
// the post-redirect poll and the signed webhook land here, possibly
// concurrently for the same session; the conditional paid transition in the
// store makes the replays converge. Any collaborator failure after the
// processor confirms leaves the rows pending and the whole call retryable,
// the payment itself is already captured.
func SettleCheckoutSession(ctx context.Context, sessionID string) (*SettlementResult, error) {
	sc := lib.GetStripeClient()
	data, err := sc.V1CheckoutSessions.Retrieve(ctx, sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrProcessor, err.Error())
	}
	if data.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		log.Printf("[Settle] Session %s not paid yet: %s\n", sessionID, data.PaymentStatus)
		return &SettlementResult{Settled: false}, nil
	}

	ids, err := ParseReservationIDs(data.Metadata)
	if err != nil {
		log.Printf("[Settle] ALERT: paid session %s has unusable metadata %v, manual reconciliation required\n", sessionID, data.Metadata)
		return nil, err
	}

	currency := string(data.Currency)
	if currency == "" {
		currency = config.DEFAULT_CURRENCY
	}
	var paymentIntentId *string
	if data.PaymentIntent != nil {
		paymentIntentId = &data.PaymentIntent.ID
	}

	result := &SettlementResult{Settled: true}
	confirmed := make([]models.Reservation, 0, len(ids))
	gdb := db.GetDb()
	for _, id := range ids {
		r, err := GetReservation(id)
		if errors.Is(err, types.ErrNotFound) {
			// Late confirmation racing the abandoned-checkout cleanup: the
			// draft is gone. Never resurrect it, flag for manual review.
			log.Printf("[Settle] ALERT: session %s references reservation %d which no longer exists, payment needs manual reconciliation\n", sessionID, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if r.Status == types.RESERVATION_CANCELLED {
			log.Printf("[Settle] ALERT: reservation %d was cancelled before session %s settled, payment needs manual reconciliation\n", id, sessionID)
			continue
		}
		if r.Status == types.RESERVATION_PAID && r.CheckoutSessionId != nil && *r.CheckoutSessionId == sessionID {
			result.Reservations = append(result.Reservations, *r)
			continue
		}

		calendarRef := ""
		if r.CalendarEventId != nil {
			calendarRef = *r.CalendarEventId
		}
		if calendarRef == "" {
			cal, err := lib.GetCalendarAPI()
			if err != nil {
				return nil, fmt.Errorf("%w: %s", types.ErrCalendar, err.Error())
			}
			calendarRef, err = cal.UpsertEvent(ctx, r)
			if err != nil {
				// Fail the settlement so the webhook redelivers and the
				// poll can be repeated; the transition stays pending.
				return nil, fmt.Errorf("%w: %s", types.ErrCalendar, err.Error())
			}
		}

		price := ResolvePrice(r.ServiceType, r.PricePaid)
		var row *models.Reservation
		changed := false
		err = gdb.Transaction(func(tx *gorm.DB) error {
			var err error
			row, changed, err = markPaidTx(tx, id, sessionID, calendarRef, price)
			if err != nil {
				return err
			}
			if !changed {
				return nil
			}
			// The audit row commits atomically with the status flip.
			history := models.PaymentHistory{
				UserID:          row.UserID,
				Email:           row.Email,
				ReferenceID:     sessionID,
				PaymentIntentId: paymentIntentId,
				Amount:          price,
				Currency:        currency,
				Type:            types.PAYMENT_SESSION_PURCHASE,
				Status:          types.PAYMENT_COMPLETED,
				Metadata:        types.JSONB{"reservaId": row.ID},
			}
			return tx.Create(&history).Error
		})
		if err != nil {
			if errors.Is(err, types.ErrInvalidState) {
				log.Printf("[Settle] Reservation %d rejected the paid transition: %s\n", id, err.Error())
				continue
			}
			return nil, err
		}
		result.Reservations = append(result.Reservations, *row)
		if changed {
			confirmed = append(confirmed, *row)
		}
	}

	if len(confirmed) > 0 {
		go sendBookingConfirmation(confirmed)
	}
	return result, nil
}

// sendBookingConfirmation mails the client after settlement. Best-effort,
// the booking stands whether or not the mail goes out.
func sendBookingConfirmation(rows []models.Reservation) {
	if len(rows) == 0 {
		return
	}
	body := "Tu pago se ha confirmado. Sesiones reservadas:\n"
	for _, r := range rows {
		body += fmt.Sprintf("- %s con %s el %s a las %s\n", r.ServiceType, r.CompanionName, r.Date, r.Time)
	}
	err := lib.SendMail(&lib.SendMailInput{
		From:     os.Getenv("MAIL_FROM"),
		FromName: "Reservas",
		To:       []string{rows[0].Email},
		Subject:  "Confirmación de reserva",
		Body:     body,
	})
	if err != nil {
		log.Printf("[Settle] Could not send confirmation mail to %s: %s\n", rows[0].Email, err.Error())
	}
}
