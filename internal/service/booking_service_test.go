package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/market-muscles-llc/pulse-kronos/internal/eventbus"
	"github.com/market-muscles-llc/pulse-kronos/internal/storage"
	"github.com/market-muscles-llc/pulse-kronos/internal/storage/mocks"
	"github.com/market-muscles-llc/pulse-kronos/internal/webhook"
)

type notifyCall struct {
	query     webhook.Query
	createdAt string
	data      webhook.CalendarEvent
}

// stubNotifier records Notify calls and answers with a fixed result.
type stubNotifier struct {
	calls    []notifyCall
	outcomes []webhook.Outcome
	err      error
}

func (n *stubNotifier) Notify(_ context.Context, q webhook.Query, createdAt string, data webhook.CalendarEvent) ([]webhook.Outcome, error) {
	n.calls = append(n.calls, notifyCall{query: q, createdAt: createdAt, data: data})
	return n.outcomes, n.err
}

func (n *stubNotifier) Deliver(_ context.Context, _ webhook.TriggerEvent, subs []webhook.Subscriber, _ string, _ webhook.CalendarEvent) []webhook.Outcome {
	return make([]webhook.Outcome, len(subs))
}

type bookingHarness struct {
	users      *mocks.MockUserStore
	eventTypes *mocks.MockEventTypeStore
	bookings   *mocks.MockBookingStore
	notifier   *stubNotifier
	publisher  *stubPublisher
	svc        *bookingService
}

func newBookingHarness() *bookingHarness {
	status := 200
	h := &bookingHarness{
		users:      new(mocks.MockUserStore),
		eventTypes: new(mocks.MockEventTypeStore),
		bookings:   new(mocks.MockBookingStore),
		notifier: &stubNotifier{outcomes: []webhook.Outcome{
			{SubscriberID: "control", OK: true, Status: &status, Message: "Webhook sent"},
		}},
		publisher: &stubPublisher{},
	}
	h.svc = NewBookingService(h.users, h.eventTypes, h.bookings, h.notifier, h.publisher, discardLogger()).(*bookingService)
	h.svc.now = func() time.Time { return fixedNow }
	return h
}

func testHost() *storage.User {
	return &storage.User{ID: 1, Name: "Hana Host", Email: "hana@example.com", TimeZone: "Europe/Berlin"}
}

func testEventType() *storage.EventType {
	return &storage.EventType{ID: 5, UserID: 1, Title: "30 Min", Slug: "30min", Length: 30}
}

func testBooking(status storage.BookingStatus) *storage.Booking {
	start := time.Date(2026, 11, 2, 15, 0, 0, 0, time.UTC)
	return &storage.Booking{
		UID:         "b-1",
		UserID:      1,
		EventTypeID: 5,
		Title:       "30 Min between Hana Host and Ann",
		StartTime:   start,
		EndTime:     start.Add(45 * time.Minute),
		Attendees:   []storage.Attendee{{Name: "Ann", Email: "ann@example.com", TimeZone: "America/Chicago"}},
		Location:    "Zoom",
		Status:      status,
	}
}

// ---------------------------------------------------------------------------
// Event types
// ---------------------------------------------------------------------------

func TestCreateEventType(t *testing.T) {
	h := newBookingHarness()
	h.users.On("GetUserByID", mock.Anything, int64(1)).Return(testHost(), nil)
	h.eventTypes.On("CreateEventType", mock.Anything, mock.Anything).Return(nil)

	et, err := h.svc.CreateEventType(context.Background(), testEventType())

	require.NoError(t, err)
	assert.Equal(t, "30min", et.Slug)
	h.eventTypes.AssertExpectations(t)
}

func TestCreateEventType_Errors(t *testing.T) {
	tests := []struct {
		name    string
		et      *storage.EventType
		setup   func(h *bookingHarness)
		checkFn func(t *testing.T, err error)
	}{
		{
			name: "missing title",
			et:   &storage.EventType{UserID: 1, Slug: "x", Length: 15},
			checkFn: func(t *testing.T, err error) {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "title", ve.Field)
			},
		},
		{
			name: "non-positive length",
			et:   &storage.EventType{UserID: 1, Title: "X", Slug: "x"},
			checkFn: func(t *testing.T, err error) {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "length", ve.Field)
			},
		},
		{
			name: "unknown user",
			et:   testEventType(),
			setup: func(h *bookingHarness) {
				h.users.On("GetUserByID", mock.Anything, int64(1)).Return(nil, nil)
			},
			checkFn: func(t *testing.T, err error) {
				var nf *NotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, "user", nf.Resource)
			},
		},
		{
			name: "duplicate slug",
			et:   testEventType(),
			setup: func(h *bookingHarness) {
				h.users.On("GetUserByID", mock.Anything, int64(1)).Return(testHost(), nil)
				h.eventTypes.On("CreateEventType", mock.Anything, mock.Anything).
					Return(errors.Join(errors.New("unique"), storage.ErrConflict))
			},
			checkFn: func(t *testing.T, err error) {
				var ce *ConflictError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, "slug", ce.Field)
				assert.Equal(t, "30min", ce.Value)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newBookingHarness()
			if tt.setup != nil {
				tt.setup(h)
			}
			_, err := h.svc.CreateEventType(context.Background(), tt.et)
			tt.checkFn(t, err)
		})
	}
}

// ---------------------------------------------------------------------------
// CreateBooking
// ---------------------------------------------------------------------------

func TestCreateBooking(t *testing.T) {
	h := newBookingHarness()
	h.eventTypes.On("GetEventType", mock.Anything, int64(5)).Return(testEventType(), nil)
	h.users.On("GetUserByID", mock.Anything, int64(1)).Return(testHost(), nil)

	var stored *storage.Booking
	h.bookings.On("CreateBooking", mock.Anything, mock.AnythingOfType("*storage.Booking")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*storage.Booking) }).
		Return(nil)

	start := time.Date(2026, 11, 2, 10, 0, 0, 0, time.FixedZone("EST", -5*3600))
	res, err := h.svc.CreateBooking(context.Background(), CreateBookingRequest{
		EventTypeID: 5,
		Start:       start,
		Attendees:   []storage.Attendee{{Name: "Ann", Email: "ann@example.com"}},
		Location:    "Zoom",
	})

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEmpty(t, stored.UID)
	assert.Equal(t, "30 Min between Hana Host and Ann", stored.Title)
	assert.Equal(t, start.UTC(), stored.StartTime)
	assert.Equal(t, start.UTC().Add(30*time.Minute), stored.EndTime)
	assert.Equal(t, storage.BookingStatusAccepted, stored.Status)
	assert.Equal(t, "Europe/Berlin", stored.Attendees[0].TimeZone, "attendee zone defaults to the host's")

	require.Len(t, res.Webhooks, 1)
	assert.True(t, res.Webhooks[0].OK)

	require.Len(t, h.notifier.calls, 1)
	call := h.notifier.calls[0]
	assert.Equal(t, webhook.Query{UserID: 1, EventTypeID: 5, Trigger: webhook.BookingCreated}, call.query)
	assert.Equal(t, "2026-10-16T09:30:00.000Z", call.createdAt)
	assert.Equal(t, "30 Min", call.data.Type)
	assert.Equal(t, stored.UID, call.data.UID)
	assert.Equal(t, "2026-11-02T15:00:00.000Z", call.data.StartTime)
	assert.Equal(t, "hana@example.com", call.data.Organizer.Email)
	assert.Equal(t, "en", call.data.Attendees[0].Language.Locale)

	assert.Equal(t, []string{eventbus.BookingCreated}, h.publisher.types())
}

func TestCreateBooking_CustomEventName(t *testing.T) {
	h := newBookingHarness()
	et := testEventType()
	et.EventName = "Intro call with {ATTENDEE}"
	h.eventTypes.On("GetEventType", mock.Anything, int64(5)).Return(et, nil)
	h.users.On("GetUserByID", mock.Anything, int64(1)).Return(testHost(), nil)
	h.bookings.On("CreateBooking", mock.Anything, mock.Anything).Return(nil)

	res, err := h.svc.CreateBooking(context.Background(), CreateBookingRequest{
		EventTypeID: 5,
		Start:       fixedNow.Add(24 * time.Hour),
		Attendees:   []storage.Attendee{{Name: "Ann", Email: "ann@example.com"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "Intro call with Ann", res.Booking.Title)
}

func TestCreateBooking_Validation(t *testing.T) {
	tests := []struct {
		name      string
		req       CreateBookingRequest
		wantField string
	}{
		{name: "no event type", req: CreateBookingRequest{Start: fixedNow}, wantField: "eventTypeId"},
		{name: "no start", req: CreateBookingRequest{EventTypeID: 5}, wantField: "start"},
		{name: "no attendees", req: CreateBookingRequest{EventTypeID: 5, Start: fixedNow}, wantField: "attendees"},
		{
			name:      "attendee without email",
			req:       CreateBookingRequest{EventTypeID: 5, Start: fixedNow, Attendees: []storage.Attendee{{Name: "Ann"}}},
			wantField: "attendees[0].email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newBookingHarness()
			_, err := h.svc.CreateBooking(context.Background(), tt.req)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.Empty(t, h.notifier.calls)
		})
	}
}

func TestCreateBooking_ResolverErrorKeepsBooking(t *testing.T) {
	h := newBookingHarness()
	h.notifier.err = errors.New("registry unavailable")
	h.eventTypes.On("GetEventType", mock.Anything, int64(5)).Return(testEventType(), nil)
	h.users.On("GetUserByID", mock.Anything, int64(1)).Return(testHost(), nil)
	h.bookings.On("CreateBooking", mock.Anything, mock.Anything).Return(nil)

	res, err := h.svc.CreateBooking(context.Background(), CreateBookingRequest{
		EventTypeID: 5,
		Start:       fixedNow,
		Attendees:   []storage.Attendee{{Name: "Ann", Email: "ann@example.com"}},
	})

	require.NoError(t, err)
	assert.NotNil(t, res.Booking)
	assert.NotNil(t, res.Webhooks)
	assert.Empty(t, res.Webhooks)
}

func TestCreateBooking_UnknownEventType(t *testing.T) {
	h := newBookingHarness()
	h.eventTypes.On("GetEventType", mock.Anything, int64(9)).Return(nil, nil)

	_, err := h.svc.CreateBooking(context.Background(), CreateBookingRequest{
		EventTypeID: 9,
		Start:       fixedNow,
		Attendees:   []storage.Attendee{{Email: "ann@example.com"}},
	})

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "event type", nf.Resource)
	h.bookings.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

// ---------------------------------------------------------------------------
// Cancel / Reschedule
// ---------------------------------------------------------------------------

func TestCancelBooking(t *testing.T) {
	h := newBookingHarness()
	h.bookings.On("GetBooking", mock.Anything, "b-1").Return(testBooking(storage.BookingStatusAccepted), nil)
	h.eventTypes.On("GetEventType", mock.Anything, int64(5)).Return(testEventType(), nil)
	h.users.On("GetUserByID", mock.Anything, int64(1)).Return(testHost(), nil)
	h.bookings.On("UpdateBooking", mock.Anything, mock.MatchedBy(func(b *storage.Booking) bool {
		return b.Status == storage.BookingStatusCancelled
	})).Return(nil)

	res, err := h.svc.CancelBooking(context.Background(), "b-1")

	require.NoError(t, err)
	assert.Equal(t, storage.BookingStatusCancelled, res.Booking.Status)
	require.Len(t, h.notifier.calls, 1)
	assert.Equal(t, webhook.BookingCancelled, h.notifier.calls[0].query.Trigger)
	assert.Equal(t, []string{eventbus.BookingCancelled}, h.publisher.types())
	h.bookings.AssertExpectations(t)
}

func TestCancelBooking_AlreadyCancelled(t *testing.T) {
	h := newBookingHarness()
	h.bookings.On("GetBooking", mock.Anything, "b-1").Return(testBooking(storage.BookingStatusCancelled), nil)

	_, err := h.svc.CancelBooking(context.Background(), "b-1")

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, h.notifier.calls)
}

func TestCancelBooking_NotFound(t *testing.T) {
	h := newBookingHarness()
	h.bookings.On("GetBooking", mock.Anything, "nope").Return(nil, nil)

	_, err := h.svc.CancelBooking(context.Background(), "nope")

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "booking", nf.Resource)
}

func TestRescheduleBooking_KeepsDuration(t *testing.T) {
	h := newBookingHarness()
	h.bookings.On("GetBooking", mock.Anything, "b-1").Return(testBooking(storage.BookingStatusAccepted), nil)
	h.eventTypes.On("GetEventType", mock.Anything, int64(5)).Return(testEventType(), nil)
	h.users.On("GetUserByID", mock.Anything, int64(1)).Return(testHost(), nil)
	h.bookings.On("UpdateBooking", mock.Anything, mock.Anything).Return(nil)

	newStart := time.Date(2026, 11, 3, 9, 0, 0, 0, time.UTC)
	res, err := h.svc.RescheduleBooking(context.Background(), "b-1", newStart)

	require.NoError(t, err)
	assert.Equal(t, newStart, res.Booking.StartTime)
	assert.Equal(t, newStart.Add(45*time.Minute), res.Booking.EndTime)
	require.Len(t, h.notifier.calls, 1)
	assert.Equal(t, webhook.BookingRescheduled, h.notifier.calls[0].query.Trigger)
	assert.Equal(t, "2026-11-03T09:00:00.000Z", h.notifier.calls[0].data.StartTime)
}

func TestRescheduleBooking_RequiresStart(t *testing.T) {
	h := newBookingHarness()
	_, err := h.svc.RescheduleBooking(context.Background(), "b-1", time.Time{})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "start", ve.Field)
}

// ---------------------------------------------------------------------------
// Confirmation
// ---------------------------------------------------------------------------

func TestConfirmation(t *testing.T) {
	tests := []struct {
		name      string
		opts      ConfirmationOptions
		status    storage.BookingStatus
		wantZone  string
		wantStart string
		wantEnd   string
		wantDate  string
	}{
		{
			name:      "attendee zone, 12h",
			status:    storage.BookingStatusAccepted,
			wantZone:  "America/Chicago",
			wantStart: "9:00am",
			wantEnd:   "9:45am",
			wantDate:  "November 02, 2026",
		},
		{
			name:      "viewer zone, 24h",
			opts:      ConfirmationOptions{TimeZone: "Asia/Tokyo", TimeFormat: "24h"},
			status:    storage.BookingStatusAccepted,
			wantZone:  "Asia/Tokyo",
			wantStart: "00:00",
			wantEnd:   "00:45",
			wantDate:  "November 03, 2026",
		},
		{
			name:      "invalid viewer zone falls back to attendee",
			opts:      ConfirmationOptions{TimeZone: "Mars/Olympus"},
			status:    storage.BookingStatusCancelled,
			wantZone:  "America/Chicago",
			wantStart: "9:00am",
			wantEnd:   "9:45am",
			wantDate:  "November 02, 2026",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newBookingHarness()
			h.bookings.On("GetBooking", mock.Anything, "b-1").Return(testBooking(tt.status), nil)
			h.eventTypes.On("GetEventType", mock.Anything, int64(5)).Return(testEventType(), nil)
			h.users.On("GetUserByID", mock.Anything, int64(1)).Return(testHost(), nil)

			c, err := h.svc.Confirmation(context.Background(), "b-1", tt.opts)

			require.NoError(t, err)
			assert.Equal(t, "30 Min between Hana Host and Ann", c.EventName)
			assert.Equal(t, tt.wantZone, c.When.TimeZone)
			assert.Equal(t, tt.wantDate, c.When.Date)
			assert.Equal(t, tt.wantStart, c.When.Start)
			assert.Equal(t, tt.wantEnd, c.When.End)
			assert.Equal(t, tt.status == storage.BookingStatusCancelled, c.Cancelled)
			assert.Contains(t, c.Links.Google, "calendar.google.com")
			assert.Contains(t, c.Links.Outlook, "outlook.live.com")
			assert.Contains(t, c.Links.Office365, "outlook.office.com")
		})
	}
}

func TestConfirmation_NotFound(t *testing.T) {
	h := newBookingHarness()
	h.bookings.On("GetBooking", mock.Anything, "nope").Return(nil, nil)

	_, err := h.svc.Confirmation(context.Background(), "nope", ConfirmationOptions{})

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}
