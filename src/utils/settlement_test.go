package utils

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"sbs/src/db"
	"sbs/src/lib"
	"sbs/src/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v82"
)

type stubCalendar struct {
	upserts int32
	cancels int32
}

func (s *stubCalendar) UpsertEvent(ctx context.Context, r *models.Reservation) (string, error) {
	atomic.AddInt32(&s.upserts, 1)
	return "cal-evt-1", nil
}

func (s *stubCalendar) CancelEvent(ctx context.Context, eventId string) error {
	atomic.AddInt32(&s.cancels, 1)
	return nil
}

// stubStripeClient points the shared client at a local server answering the
// checkout session retrieve with the given body.
func stubStripeClient(t *testing.T, sessionJSON string) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, sessionJSON)
	}))
	t.Cleanup(srv.Close)
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL: stripe.String(srv.URL),
	})
	lib.NewStripeClient(stripe.NewClient("sk_test_x", stripe.WithBackends(&stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})))
}

func TestSettleCheckoutSessionIdempotent(t *testing.T) {
	stubStripeClient(t, `{"id":"cs_test_1","object":"checkout.session","payment_status":"paid","currency":"eur","metadata":{"reservaIds":"[1]"}}`)
	cal := &stubCalendar{}
	lib.NewCalendarAPI(cal)

	d, mock := NewMockDB()
	db.NewDB(d)

	// First delivery: one calendar upsert, one paid flip, one payment
	// history row committed in the same transaction.
	mock.ExpectQuery(`SELECT (.+) FROM "reservations"`).
		WillReturnRows(reservationRow("pending", "cs_test_1"))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "reservations" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "reservations"`).
		WillReturnRows(reservationRow("paid", "cs_test_1"))
	mock.ExpectQuery(`INSERT INTO "payment_histories"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	result, err := SettleCheckoutSession(context.Background(), "cs_test_1")
	assert.Nil(t, err)
	assert.True(t, result.Settled)
	assert.Len(t, result.Reservations, 1)

	// Second delivery of the same session: the row is already paid with
	// this session reference, so no calendar call and no writes happen.
	mock.ExpectQuery(`SELECT (.+) FROM "reservations"`).
		WillReturnRows(reservationRow("paid", "cs_test_1"))

	result, err = SettleCheckoutSession(context.Background(), "cs_test_1")
	assert.Nil(t, err)
	assert.True(t, result.Settled)
	assert.Len(t, result.Reservations, 1)

	assert.EqualValues(t, 1, atomic.LoadInt32(&cal.upserts))
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestSettleCheckoutSessionNotPaidYet(t *testing.T) {
	stubStripeClient(t, `{"id":"cs_test_2","object":"checkout.session","payment_status":"unpaid","metadata":{"reservaIds":"[1]"}}`)
	cal := &stubCalendar{}
	lib.NewCalendarAPI(cal)

	d, mock := NewMockDB()
	db.NewDB(d)

	// Not a fault: nothing is touched until the processor confirms.
	result, err := SettleCheckoutSession(context.Background(), "cs_test_2")
	assert.Nil(t, err)
	assert.False(t, result.Settled)
	assert.EqualValues(t, 0, atomic.LoadInt32(&cal.upserts))
	assert.Nil(t, mock.ExpectationsWereMet())
}
