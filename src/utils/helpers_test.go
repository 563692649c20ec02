package utils

import (
	"testing"
	"time"

	"sbs/src/config"
	"sbs/src/models"
	"sbs/src/types"

	"github.com/stretchr/testify/assert"
)

func TestIsProd(t *testing.T) {
	t.Setenv("API_ENV", "production")
	assert.True(t, IsProd())
	t.Setenv("API_ENV", "local")
	assert.False(t, IsProd())
}

func TestResolvePrice(t *testing.T) {
	explicit := 80.0
	zero := 0.0
	negative := -10.0

	assert.Equal(t, 80.0, ResolvePrice(types.SERVICE_INDIVIDUAL, &explicit))
	assert.Equal(t, 80.0, ResolvePrice(types.SERVICE_PAREJA, &explicit))

	assert.Equal(t, config.DEFAULT_PRICE_PAREJA, ResolvePrice(types.SERVICE_PAREJA, nil))
	assert.Equal(t, config.DEFAULT_PRICE_PAREJA, ResolvePrice(types.SERVICE_PAREJA, &zero))
	assert.Equal(t, config.DEFAULT_PRICE_PAREJA, ResolvePrice(types.SERVICE_PAREJA, &negative))

	assert.Equal(t, config.DEFAULT_PRICE_INDIVIDUAL, ResolvePrice(types.SERVICE_INDIVIDUAL, nil))
	assert.Equal(t, config.DEFAULT_PRICE_INDIVIDUAL, ResolvePrice("", nil))
	assert.Equal(t, config.DEFAULT_PRICE_INDIVIDUAL, ResolvePrice("Algo raro", &zero))
}

func TestRefundDecisionBoundary(t *testing.T) {
	now := time.Date(2025, 4, 30, 10, 0, 0, 0, time.Local)

	eligible, reason := RefundDecision(now.Add(24*time.Hour+time.Minute), now)
	assert.True(t, eligible)
	assert.Equal(t, CancelReasonRefundable, reason)

	eligible, reason = RefundDecision(now.Add(23*time.Hour+59*time.Minute), now)
	assert.False(t, eligible)
	assert.Equal(t, CancelReasonForfeited, reason)

	// Exactly 24h falls on the no-refund side.
	eligible, _ = RefundDecision(now.Add(24*time.Hour), now)
	assert.False(t, eligible)
}

func TestReservationIDsMetadataRoundTrip(t *testing.T) {
	encoded := EncodeReservationIDs([]uint{3, 7, 11})
	ids, err := ParseReservationIDs(map[string]string{"reservaIds": encoded})
	assert.Nil(t, err)
	assert.Equal(t, []uint{3, 7, 11}, ids)
}

func TestReservationIDsMetadataFailures(t *testing.T) {
	_, err := ParseReservationIDs(map[string]string{})
	assert.ErrorIs(t, err, types.ErrMetadata)

	_, err = ParseReservationIDs(map[string]string{"reservaIds": ""})
	assert.ErrorIs(t, err, types.ErrMetadata)

	_, err = ParseReservationIDs(map[string]string{"reservaIds": "not json"})
	assert.ErrorIs(t, err, types.ErrMetadata)

	_, err = ParseReservationIDs(map[string]string{"reservaIds": "[]"})
	assert.ErrorIs(t, err, types.ErrMetadata)
}

func TestOwnedBy(t *testing.T) {
	ownerId := uint(42)
	r := &models.Reservation{UserID: &ownerId, Email: "Cliente@Example.com"}

	assert.True(t, OwnedBy(r, Identity{UserID: 42}))
	assert.True(t, OwnedBy(r, Identity{UserID: 7, Email: "cliente@example.com"}))
	assert.False(t, OwnedBy(r, Identity{UserID: 7, Email: "otra@example.com"}))
	assert.False(t, OwnedBy(r, Identity{}))

	unlinked := &models.Reservation{Email: "cliente@example.com"}
	assert.True(t, OwnedBy(unlinked, Identity{Email: "CLIENTE@example.com"}))
	assert.False(t, OwnedBy(unlinked, Identity{UserID: 42}))
}

func TestAppointmentTime(t *testing.T) {
	r := &models.Reservation{Date: "2025-05-01", Time: "10:00"}
	appointment, err := AppointmentTime(r)
	assert.Nil(t, err)
	assert.Equal(t, time.Date(2025, 5, 1, 10, 0, 0, 0, time.Local), appointment)

	_, err = AppointmentTime(&models.Reservation{Date: "mañana", Time: "10:00"})
	assert.NotNil(t, err)
}

func TestPartitionReservations(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.Local)
	rows := []models.Reservation{
		{ID: 1, Date: "2025-05-20", Time: "10:00", Status: types.RESERVATION_PAID},
		{ID: 2, Date: "2025-05-01", Time: "10:00", Status: types.RESERVATION_PAID},
		{ID: 3, Date: "2025-05-12", Time: "09:00", Status: types.RESERVATION_PENDING},
		{ID: 4, Date: "2025-05-12", Time: "08:00", Status: types.RESERVATION_PENDING},
		{ID: 5, Date: "2025-06-01", Time: "10:00", Status: types.RESERVATION_CANCELLED},
		{ID: 6, Date: "2025-05-10", Time: "18:00", Status: types.RESERVATION_PAID},
	}

	upcoming, past := PartitionReservations(rows, now)

	// Upcoming: today onwards, not cancelled, soonest first.
	upcomingIds := []uint{}
	for _, r := range upcoming {
		upcomingIds = append(upcomingIds, r.ID)
	}
	assert.Equal(t, []uint{6, 4, 3, 1}, upcomingIds)

	// Past: older dates plus every cancelled one, most recent first.
	pastIds := []uint{}
	for _, r := range past {
		pastIds = append(pastIds, r.ID)
	}
	assert.Equal(t, []uint{5, 2}, pastIds)
}
