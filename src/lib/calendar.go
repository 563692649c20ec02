package lib

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path"
	"time"

	"sbs/src/config"
	"sbs/src/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// CalendarAPI is the slice of the calendar provider the booking flow needs:
// create or refresh the event for a reservation and drop it on cancellation.
type CalendarAPI interface {
	UpsertEvent(ctx context.Context, r *models.Reservation) (string, error)
	CancelEvent(ctx context.Context, eventId string) error
}

var calendarAPI CalendarAPI

func GetCalendarAPI() (CalendarAPI, error) {
	if calendarAPI != nil {
		return calendarAPI, nil
	}
	svc, err := gapiGetCalendarService()
	if err != nil {
		return nil, err
	}
	calendarAPI = &googleCalendarAPI{svc: svc, calendarId: bookingsCalendarId()}
	return calendarAPI, nil
}

// NewCalendarAPI replaces the provider, used by tests.
func NewCalendarAPI(c CalendarAPI) CalendarAPI {
	calendarAPI = c
	return calendarAPI
}

func bookingsCalendarId() string {
	if id := os.Getenv("BOOKINGS_CALENDAR_ID"); id != "" {
		return id
	}
	return "primary"
}

func getCalendarClient(conf *oauth2.Config) (*http.Client, error) {
	tokFile, err := os.Open("token.json")
	if err != nil {
		return nil, err
	}
	defer tokFile.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(tokFile).Decode(tok); err != nil {
		return nil, err
	}

	cli := conf.Client(context.Background(), tok)
	return cli, nil
}

func gapiGetCalendarService() (svc *calendar.Service, err error) {
	secretsPath := os.Getenv("SECRETS_DIR")
	b, err := os.ReadFile(path.Join(secretsPath, "client_secret.json"))
	if err != nil {
		return nil, err
	}
	conf, err := google.ConfigFromJSON(b, calendar.CalendarEventsScope)
	if err != nil {
		return nil, err
	}
	cli, err := getCalendarClient(conf)
	if err != nil {
		return nil, err
	}
	return calendar.NewService(context.Background(), option.WithHTTPClient(cli))
}

type googleCalendarAPI struct {
	svc        *calendar.Service
	calendarId string
}

func (g *googleCalendarAPI) UpsertEvent(ctx context.Context, r *models.Reservation) (string, error) {
	start, err := time.ParseInLocation(config.APPOINTMENT_PARSE_FORMAT, fmt.Sprintf("%s %s", r.Date, r.Time), time.Local)
	if err != nil {
		return "", err
	}
	duration := r.Duration
	if duration == 0 {
		duration = config.DEFAULT_SESSION_DURATION_MINUTES
	}
	end := start.Add(time.Duration(duration) * time.Minute)
	event := &calendar.Event{
		Summary:     fmt.Sprintf("Sesión %s - %s %s", r.ServiceType, r.Name, r.Surname),
		Description: fmt.Sprintf("Sesión con %s", r.CompanionName),
		Start: &calendar.EventDateTime{
			DateTime: start.Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
		},
		Attendees: []*calendar.EventAttendee{
			{Email: r.Email, DisplayName: fmt.Sprintf("%s %s", r.Name, r.Surname)},
			{Email: r.CompanionEmail, DisplayName: r.CompanionName},
		},
	}
	if r.CalendarEventId != nil && *r.CalendarEventId != "" {
		event.Id = *r.CalendarEventId
		updated, err := g.svc.Events.Update(g.calendarId, event.Id, event).Context(ctx).Do()
		if err != nil {
			return "", err
		}
		return updated.Id, nil
	}
	created, err := g.svc.Events.Insert(g.calendarId, event).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return created.Id, nil
}

func (g *googleCalendarAPI) CancelEvent(ctx context.Context, eventId string) error {
	return g.svc.Events.Delete(g.calendarId, eventId).Context(ctx).Do()
}
