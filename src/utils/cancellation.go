package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"sbs/src/lib"
	"sbs/src/models"
	"sbs/src/types"
)

type CancellationResult struct {
	Cancelled      bool                `json:"success"`
	RefundEligible bool                `json:"canRefund"`
	Reservation    *models.Reservation `json:"reservation"`
}

// CancelReservation is the client-initiated cancellation with the refund
// window decision. The local record is the authority: the calendar removal
// is best-effort and never blocks the cancellation itself.
func CancelReservation(ctx context.Context, identity Identity, id uint) (*CancellationResult, error) {
	r, err := GetReservation(id)
	if err != nil {
		return nil, err
	}
	if !OwnedBy(r, identity) {
		return nil, fmt.Errorf("%w: reservation %d", types.ErrForbidden, id)
	}
	if r.Status == types.RESERVATION_CANCELLED {
		return nil, types.ErrAlreadyCancelled
	}
	appointment, err := AppointmentTime(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reservation %d has an unparseable slot", types.ErrValidation, id)
	}
	eligible, reason := RefundDecision(appointment, time.Now())

	updated, err := TransitionToCancelled(id, reason)
	if err != nil {
		return nil, err
	}

	if updated.CalendarEventId != nil && *updated.CalendarEventId != "" {
		cal, err := lib.GetCalendarAPI()
		if err != nil {
			log.Printf("[Cancel] Calendar unavailable, event %s for reservation %d left behind: %s\n", *updated.CalendarEventId, id, err.Error())
		} else if err := cal.CancelEvent(ctx, *updated.CalendarEventId); err != nil {
			log.Printf("[Cancel] Could not remove calendar event %s for reservation %d: %s\n", *updated.CalendarEventId, id, err.Error())
		}
	}

	go sendCancellationNotice(updated, eligible)

	return &CancellationResult{
		Cancelled:      true,
		RefundEligible: eligible,
		Reservation:    updated,
	}, nil
}

func sendCancellationNotice(r *models.Reservation, refundEligible bool) {
	body := fmt.Sprintf("Tu sesión con %s el %s a las %s ha sido cancelada.\n", r.CompanionName, r.Date, r.Time)
	if refundEligible {
		body += "El importe abonado será reembolsado.\n"
	} else {
		body += "La cancelación se ha realizado con menos de 24 horas de antelación, por lo que no procede reembolso.\n"
	}
	err := lib.SendMail(&lib.SendMailInput{
		From:     os.Getenv("MAIL_FROM"),
		FromName: "Reservas",
		To:       []string{r.Email},
		Subject:  "Cancelación de reserva",
		Body:     body,
	})
	if err != nil {
		log.Printf("[Cancel] Could not send cancellation mail to %s: %s\n", r.Email, err.Error())
	}
}
