package config

import (
	"fmt"
	"os"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const (
	DATE_PARSE_FORMAT = "2006-01-02"
	TIME_PARSE_FORMAT = "15:04"
	// Reservation Date and Time columns joined with a space.
	APPOINTMENT_PARSE_FORMAT = DATE_PARSE_FORMAT + " " + TIME_PARSE_FORMAT
)

// Catalog entries sometimes arrive without a price. These are the fixed
// per-service-type fallbacks applied at cart assembly.
const (
	DEFAULT_PRICE_INDIVIDUAL = 50.0
	DEFAULT_PRICE_PAREJA     = 65.0
)

const DEFAULT_CURRENCY = "eur"

// A cancellation made 24 hours or less before the appointment forfeits the
// refund. Strictly more than REFUND_WINDOW_HOURS remaining keeps it.
const REFUND_WINDOW_HOURS = 24

const DEFAULT_SESSION_DURATION_MINUTES = 60
