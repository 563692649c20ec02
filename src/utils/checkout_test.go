package utils

import (
	"context"
	"testing"

	"sbs/src/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestAbandonCheckoutCleansPendingOnly(t *testing.T) {
	stubStripeClient(t, `{"id":"cs_ab_1","object":"checkout.session","payment_status":"unpaid","metadata":{"reservaIds":"[1,2]"}}`)

	d, mock := NewMockDB()
	db.NewDB(d)

	// Reservation 1 is still pending and gets discarded.
	mock.ExpectQuery(`SELECT (.+) FROM "reservations"`).
		WillReturnRows(reservationRow("pending", "cs_ab_1"))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "reservations" SET "deleted_at"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Reservation 2 settled while the client was backing out: the delete
	// matches nothing and the row is left in place.
	mock.ExpectQuery(`SELECT (.+) FROM "reservations"`).
		WillReturnRows(reservationRow("paid", "cs_ab_1"))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "reservations" SET "deleted_at"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT (.+) FROM "reservations"`).
		WillReturnRows(reservationRow("paid", "cs_ab_1"))
	mock.ExpectRollback()

	deleted, err := AbandonCheckout(context.Background(), Identity{Email: "cliente@example.com"}, "cs_ab_1")
	assert.Nil(t, err)
	assert.Equal(t, 1, deleted)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestAbandonCheckoutSkipsForeignReservations(t *testing.T) {
	stubStripeClient(t, `{"id":"cs_ab_2","object":"checkout.session","payment_status":"unpaid","metadata":{"reservaIds":"[1]"}}`)

	d, mock := NewMockDB()
	db.NewDB(d)

	mock.ExpectQuery(`SELECT (.+) FROM "reservations"`).
		WillReturnRows(reservationRow("pending", "cs_ab_2"))

	deleted, err := AbandonCheckout(context.Background(), Identity{Email: "otra@example.com"}, "cs_ab_2")
	assert.Nil(t, err)
	assert.Equal(t, 0, deleted)
	assert.Nil(t, mock.ExpectationsWereMet())
}
