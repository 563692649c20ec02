package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"sbs/src/config"
	"sbs/src/models"
	"sbs/src/types"

	"github.com/gin-gonic/gin"
)

func IsProd() bool {
	return os.Getenv("API_ENV") == string("production")
}

// Identity is the authenticated caller as resolved by the auth middleware.
type Identity struct {
	UserID uint
	Email  string
}

func IdentityFromContext(ctx *gin.Context) Identity {
	return Identity{
		UserID: ctx.GetUint("id"),
		Email:  ctx.GetString("email"),
	}
}

// OwnedBy reports whether the caller owns the reservation, either through the
// linked user id or a matching contact email.
func OwnedBy(r *models.Reservation, id Identity) bool {
	if id.UserID != 0 && r.UserID != nil && *r.UserID == id.UserID {
		return true
	}
	return id.Email != "" && strings.EqualFold(r.Email, id.Email)
}

func AppointmentTime(r *models.Reservation) (time.Time, error) {
	return time.ParseInLocation(config.APPOINTMENT_PARSE_FORMAT, fmt.Sprintf("%s %s", r.Date, r.Time), time.Local)
}

// Fixed audit strings recorded on the reservation per eligibility branch.
const (
	CancelReasonRefundable = "Cancelada con más de 24 horas de antelación: reembolso disponible"
	CancelReasonForfeited  = "Cancelada con menos de 24 horas de antelación: sin reembolso"
)

// RefundDecision applies the cancellation window. Eligible only when strictly
// more than the window remains; exactly 24h falls on the no-refund side.
func RefundDecision(appointment time.Time, now time.Time) (bool, string) {
	if appointment.Sub(now) > config.REFUND_WINDOW_HOURS*time.Hour {
		return true, CancelReasonRefundable
	}
	return false, CancelReasonForfeited
}

// ResolvePrice applies the catalog fallback: an explicit positive price wins,
// otherwise the per-service-type default. No averaging, no zero-pricing.
func ResolvePrice(serviceType string, price *float64) float64 {
	if price != nil && *price > 0 {
		return *price
	}
	if serviceType == types.SERVICE_PAREJA {
		return config.DEFAULT_PRICE_PAREJA
	}
	return config.DEFAULT_PRICE_INDIVIDUAL
}

// The processor has no concept of "one session, many reservations", so the
// id list travels as a JSON array inside the session metadata.
const metadataReservaIdsKey = "reservaIds"

func EncodeReservationIDs(ids []uint) string {
	b, _ := json.Marshal(ids)
	return string(b)
}

func ParseReservationIDs(metadata map[string]string) ([]uint, error) {
	raw, ok := metadata[metadataReservaIdsKey]
	if !ok || raw == "" {
		return nil, types.ErrMetadata
	}
	var ids []uint
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrMetadata, err.Error())
	}
	if len(ids) == 0 {
		return nil, types.ErrMetadata
	}
	return ids, nil
}

// PartitionReservations splits rows for the "mine" listing. Upcoming keeps
// live reservations from today on, soonest first; everything else, including
// every cancelled one, lands in past, most recent first. Lexicographic
// comparison works because Date and Time are stored zero-padded.
func PartitionReservations(rows []models.Reservation, now time.Time) (upcoming []models.Reservation, past []models.Reservation) {
	today := now.Format(config.DATE_PARSE_FORMAT)
	upcoming = make([]models.Reservation, 0)
	past = make([]models.Reservation, 0)
	for _, r := range rows {
		if r.Status != types.RESERVATION_CANCELLED && r.Date >= today {
			upcoming = append(upcoming, r)
		} else {
			past = append(past, r)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		if upcoming[i].Date != upcoming[j].Date {
			return upcoming[i].Date < upcoming[j].Date
		}
		return upcoming[i].Time < upcoming[j].Time
	})
	sort.Slice(past, func(i, j int) bool {
		if past[i].Date != past[j].Date {
			return past[i].Date > past[j].Date
		}
		return past[i].Time > past[j].Time
	})
	return upcoming, past
}
