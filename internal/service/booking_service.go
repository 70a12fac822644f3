package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/market-muscles-llc/pulse-kronos/internal/booking"
	"github.com/market-muscles-llc/pulse-kronos/internal/eventbus"
	"github.com/market-muscles-llc/pulse-kronos/internal/storage"
	"github.com/market-muscles-llc/pulse-kronos/internal/webhook"
)

const tracerName = "github.com/market-muscles-llc/pulse-kronos/internal/service"

// CreateBookingRequest books a slot of an event type.
type CreateBookingRequest struct {
	EventTypeID     int64              `json:"eventTypeId"`
	Start           time.Time          `json:"start"`
	Attendees       []storage.Attendee `json:"attendees"`
	Description     string             `json:"description"`
	AdditionalNotes string             `json:"additionalNotes"`
	Location        string             `json:"location"`
}

// BookingResult is a mutated booking together with the webhook outcomes of
// the notification it triggered.
type BookingResult struct {
	Booking  *storage.Booking  `json:"booking"`
	Webhooks []webhook.Outcome `json:"webhooks"`
}

// ConfirmationOptions are the viewer preferences for the confirmation page.
type ConfirmationOptions struct {
	// TimeZone is the viewer's zone. Empty falls back to the first attendee's.
	TimeZone   string
	TimeFormat string
}

// Confirmation is the view model of the booking confirmation page.
type Confirmation struct {
	Booking   *storage.Booking
	EventType *storage.EventType
	Host      *storage.User
	EventName string
	When      booking.When
	Links     booking.Links
	Cancelled bool
}

// BookingService defines the business logic for event types and bookings.
// Booking mutations notify webhook subscribers before returning.
type BookingService interface {
	CreateEventType(ctx context.Context, et *storage.EventType) (*storage.EventType, error)
	ListEventTypes(ctx context.Context, userID int64) ([]*storage.EventType, error)
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingResult, error)
	GetBooking(ctx context.Context, uid string) (*storage.Booking, error)
	CancelBooking(ctx context.Context, uid string) (*BookingResult, error)
	RescheduleBooking(ctx context.Context, uid string, start time.Time) (*BookingResult, error)
	Confirmation(ctx context.Context, uid string, opts ConfirmationOptions) (*Confirmation, error)
}

type bookingService struct {
	users      storage.UserStore
	eventTypes storage.EventTypeStore
	bookings   storage.BookingStore
	notifier   Notifier
	publisher  EventPublisher
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewBookingService returns a new BookingService. publisher may be nil.
func NewBookingService(
	users storage.UserStore,
	eventTypes storage.EventTypeStore,
	bookings storage.BookingStore,
	notifier Notifier,
	publisher EventPublisher,
	logger *slog.Logger,
) BookingService {
	return &bookingService{
		users:      users,
		eventTypes: eventTypes,
		bookings:   bookings,
		notifier:   notifier,
		publisher:  publisher,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
}

func (s *bookingService) CreateEventType(ctx context.Context, et *storage.EventType) (*storage.EventType, error) {
	if strings.TrimSpace(et.Title) == "" {
		return nil, &ValidationError{Field: "title", Message: "title is required"}
	}
	if strings.TrimSpace(et.Slug) == "" {
		return nil, &ValidationError{Field: "slug", Message: "slug is required"}
	}
	if et.Length <= 0 {
		return nil, &ValidationError{Field: "length", Message: "length must be a positive number of minutes"}
	}

	if _, err := s.host(ctx, et.UserID); err != nil {
		return nil, err
	}

	if err := s.eventTypes.CreateEventType(ctx, et); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, &ConflictError{Resource: "event type", Field: "slug", Value: et.Slug}
		}
		return nil, fmt.Errorf("creating event type: %w", err)
	}
	s.logger.Info("event type created", "id", et.ID, "user_id", et.UserID, "slug", et.Slug)
	return et, nil
}

func (s *bookingService) ListEventTypes(ctx context.Context, userID int64) ([]*storage.EventType, error) {
	ets, err := s.eventTypes.ListEventTypes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing event types: %w", err)
	}
	return ets, nil
}

func (s *bookingService) host(ctx context.Context, userID int64) (*storage.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("looking up user %d: %w", userID, err)
	}
	if u == nil {
		return nil, &NotFoundError{Resource: "user", ID: fmt.Sprint(userID)}
	}
	return u, nil
}

func (s *bookingService) eventType(ctx context.Context, id int64) (*storage.EventType, error) {
	et, err := s.eventTypes.GetEventType(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("looking up event type %d: %w", id, err)
	}
	if et == nil {
		return nil, &NotFoundError{Resource: "event type", ID: fmt.Sprint(id)}
	}
	return et, nil
}

func validateBooking(req CreateBookingRequest) error {
	if req.EventTypeID == 0 {
		return &ValidationError{Field: "eventTypeId", Message: "eventTypeId is required"}
	}
	if req.Start.IsZero() {
		return &ValidationError{Field: "start", Message: "start is required"}
	}
	if len(req.Attendees) == 0 {
		return &ValidationError{Field: "attendees", Message: "at least one attendee is required"}
	}
	for i, a := range req.Attendees {
		if len(strings.TrimSpace(a.Email)) < minEmailLength {
			return &ValidationError{Field: fmt.Sprintf("attendees[%d].email", i), Message: MsgInvalidEmail}
		}
	}
	return nil
}

func (s *bookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (res *BookingResult, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.CreateBooking",
		trace.WithAttributes(attribute.Int64("event_type.id", req.EventTypeID)))
	defer func() { endSpan(span, err) }()

	if err := validateBooking(req); err != nil {
		return nil, err
	}
	et, err := s.eventType(ctx, req.EventTypeID)
	if err != nil {
		return nil, err
	}
	host, err := s.host(ctx, et.UserID)
	if err != nil {
		return nil, err
	}

	for i := range req.Attendees {
		if req.Attendees[i].TimeZone == "" {
			req.Attendees[i].TimeZone = host.TimeZone
		}
	}

	start := req.Start.UTC()
	b := &storage.Booking{
		UID:         uuid.NewString(),
		UserID:      host.ID,
		EventTypeID: et.ID,
		Title: booking.EventName(booking.NameParts{
			EventType: et.Title,
			Custom:    et.EventName,
			Host:      host.Name,
			Attendee:  req.Attendees[0].Name,
			Location:  req.Location,
		}, false),
		Description:     req.Description,
		AdditionalNotes: req.AdditionalNotes,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(et.Length) * time.Minute),
		Attendees:       req.Attendees,
		Location:        req.Location,
		Status:          storage.BookingStatusAccepted,
	}
	if err := s.bookings.CreateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("creating booking: %w", err)
	}
	span.SetAttributes(attribute.String("booking.uid", b.UID))

	s.logger.Info("booking created", "uid", b.UID, "event_type_id", et.ID, "user_id", host.ID)
	publish(s.publisher, eventbus.BookingCreated, map[string]string{"uid": b.UID})
	return &BookingResult{Booking: b, Webhooks: s.notify(ctx, webhook.BookingCreated, b, et, host)}, nil
}

func (s *bookingService) GetBooking(ctx context.Context, uid string) (*storage.Booking, error) {
	b, err := s.bookings.GetBooking(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("getting booking %q: %w", uid, err)
	}
	if b == nil {
		return nil, &NotFoundError{Resource: "booking", ID: uid}
	}
	return b, nil
}

// loadForUpdate returns an accepted booking with its event type and host.
func (s *bookingService) loadForUpdate(ctx context.Context, uid string) (*storage.Booking, *storage.EventType, *storage.User, error) {
	b, err := s.GetBooking(ctx, uid)
	if err != nil {
		return nil, nil, nil, err
	}
	if b.Status == storage.BookingStatusCancelled {
		return nil, nil, nil, &ValidationError{Field: "status", Message: "booking is cancelled"}
	}
	et, err := s.eventType(ctx, b.EventTypeID)
	if err != nil {
		return nil, nil, nil, err
	}
	host, err := s.host(ctx, b.UserID)
	if err != nil {
		return nil, nil, nil, err
	}
	return b, et, host, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, uid string) (res *BookingResult, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.CancelBooking",
		trace.WithAttributes(attribute.String("booking.uid", uid)))
	defer func() { endSpan(span, err) }()

	b, et, host, err := s.loadForUpdate(ctx, uid)
	if err != nil {
		return nil, err
	}

	b.Status = storage.BookingStatusCancelled
	if err := s.bookings.UpdateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("cancelling booking: %w", err)
	}

	s.logger.Info("booking cancelled", "uid", uid)
	publish(s.publisher, eventbus.BookingCancelled, map[string]string{"uid": uid})
	return &BookingResult{Booking: b, Webhooks: s.notify(ctx, webhook.BookingCancelled, b, et, host)}, nil
}

func (s *bookingService) RescheduleBooking(ctx context.Context, uid string, start time.Time) (res *BookingResult, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.RescheduleBooking",
		trace.WithAttributes(attribute.String("booking.uid", uid)))
	defer func() { endSpan(span, err) }()

	if start.IsZero() {
		return nil, &ValidationError{Field: "start", Message: "start is required"}
	}
	b, et, host, err := s.loadForUpdate(ctx, uid)
	if err != nil {
		return nil, err
	}

	duration := b.EndTime.Sub(b.StartTime)
	b.StartTime = start.UTC()
	b.EndTime = b.StartTime.Add(duration)
	if err := s.bookings.UpdateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("rescheduling booking: %w", err)
	}

	s.logger.Info("booking rescheduled", "uid", uid, "start", b.StartTime)
	publish(s.publisher, eventbus.BookingRescheduled, map[string]string{"uid": uid})
	return &BookingResult{Booking: b, Webhooks: s.notify(ctx, webhook.BookingRescheduled, b, et, host)}, nil
}

// notify delivers the booking to its subscribers. A resolver failure is
// logged and yields no outcomes; the booking itself is already stored.
func (s *bookingService) notify(
	ctx context.Context, trigger webhook.TriggerEvent, b *storage.Booking, et *storage.EventType, host *storage.User,
) []webhook.Outcome {
	q := webhook.Query{UserID: host.ID, EventTypeID: et.ID, Trigger: trigger}
	outcomes, err := s.notifier.Notify(ctx, q, ISOTimestamp(s.now()), CalendarEvent(b, et, host))
	if err != nil {
		s.logger.Error("resolving webhook subscribers failed", "uid", b.UID, "trigger", trigger, "error", err)
		return []webhook.Outcome{}
	}
	return outcomes
}

// CalendarEvent converts a stored booking into the webhook event payload.
func CalendarEvent(b *storage.Booking, et *storage.EventType, host *storage.User) webhook.CalendarEvent {
	attendees := make([]webhook.Person, 0, len(b.Attendees))
	for _, a := range b.Attendees {
		attendees = append(attendees, webhook.Person{
			Name:     a.Name,
			Email:    a.Email,
			TimeZone: a.TimeZone,
			Language: webhook.Language{Locale: localeOrDefault(a.Locale)},
		})
	}
	return webhook.CalendarEvent{
		Type:            et.Title,
		Title:           b.Title,
		Description:     b.Description,
		AdditionalNotes: b.AdditionalNotes,
		StartTime:       ISOTimestamp(b.StartTime),
		EndTime:         ISOTimestamp(b.EndTime),
		Organizer: webhook.Person{
			Name:     host.Name,
			Email:    host.Email,
			TimeZone: host.TimeZone,
			Language: webhook.Language{Locale: "en"},
		},
		Attendees: attendees,
		Location:  b.Location,
		UID:       b.UID,
	}
}

func localeOrDefault(locale string) string {
	if locale == "" {
		return "en"
	}
	return locale
}

func (s *bookingService) Confirmation(ctx context.Context, uid string, opts ConfirmationOptions) (*Confirmation, error) {
	b, err := s.GetBooking(ctx, uid)
	if err != nil {
		return nil, err
	}
	et, err := s.eventType(ctx, b.EventTypeID)
	if err != nil {
		return nil, err
	}
	host, err := s.host(ctx, b.UserID)
	if err != nil {
		return nil, err
	}

	var attendee storage.Attendee
	if len(b.Attendees) > 0 {
		attendee = b.Attendees[0]
	}
	name := booking.EventName(booking.NameParts{
		EventType: et.Title,
		Custom:    et.EventName,
		Host:      host.Name,
		Attendee:  attendee.Name,
		Location:  b.Location,
	}, true)

	loc, zone := booking.ResolveLocation(opts.TimeZone, attendee.TimeZone)
	return &Confirmation{
		Booking:   b,
		EventType: et,
		Host:      host,
		EventName: name,
		When:      booking.FormatWhen(b.StartTime, b.EndTime, loc, zone, booking.ClockLayout(opts.TimeFormat)),
		Links: booking.CalendarLinks(booking.Event{
			Title:       name,
			Description: b.Description,
			Location:    b.Location,
			Start:       b.StartTime,
			End:         b.EndTime,
		}),
		Cancelled: b.Status == storage.BookingStatusCancelled,
	}, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
