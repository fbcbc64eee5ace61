// Package workflow drives one room booking from date entry through booking
// creation to payment.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"roomrenting/internal/config"
	"roomrenting/internal/events"
	"roomrenting/internal/logging"
	"roomrenting/internal/metrics"
	"roomrenting/internal/models"
	"roomrenting/internal/pricing"
	"roomrenting/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingAPI is the part of the rental API the workflow calls.
type BookingAPI interface {
	BookRoom(ctx context.Context, req models.BookRoomRequest) (*models.BookRoomResponse, error)
	ProcessPayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentResponse, error)
	CancelBooking(ctx context.Context, bookingID int64) error
}

// PaymentResult is the recorded outcome of the payment call.
type PaymentResult struct {
	BookingID   int64
	PaymentID   int64
	Amount      models.Money
	PaymentDate string
	Status      string
}

// Outcome summarizes a finished attempt.
type Outcome struct {
	AttemptID string
	State     State
	Pricing   pricing.Result
	BookingID int64
	Payment   *PaymentResult
}

// Workflow creates attempts that share an API, an event bus and settings.
type Workflow struct {
	api        BookingAPI
	bus        *events.EventBus
	logger     zerolog.Logger
	compensate bool
	retry      RetryPolicy
	now        func() time.Time
}

// New builds a Workflow. bus and logger may be nil.
func New(bookingAPI BookingAPI, cfg config.BookingConfig, bus *events.EventBus, logger *zerolog.Logger) *Workflow {
	l := logging.Component(logger, "booking-workflow")
	return &Workflow{
		api:        bookingAPI,
		bus:        bus,
		logger:     l,
		compensate: cfg.CompensateOnPaymentFailure,
		retry:      retryPolicyFromConfig(cfg),
		now:        time.Now,
	}
}

// ComputePrice prices a stay without side effects. Missing dates yield
// ErrValidation and a check-out not after check-in yields ErrInvalidDateRange.
func ComputePrice(room models.Room, checkIn, checkOut time.Time) (pricing.Result, error) {
	res, err := pricing.Compute(room, checkIn, checkOut)
	if err != nil {
		return pricing.Result{}, classify(err)
	}
	return res, nil
}

// ParseStay parses and validates a check-in/check-out pair with the same
// errors ComputePrice reports.
func ParseStay(checkIn, checkOut string) (pricing.DateRange, error) {
	r, err := pricing.ParseRange(checkIn, checkOut)
	if err != nil {
		return pricing.DateRange{}, classify(err)
	}
	return r, nil
}

func classify(err error) error {
	if errors.Is(err, pricing.ErrInvalidDateRange) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// Attempt is one try at booking and paying for a single room. Its methods
// are safe to call from several goroutines; submissions are serialized by
// an in-flight flag rather than queued.
type Attempt struct {
	wf      *Workflow
	id      string
	room    models.Room
	session *session.Session
	logger  zerolog.Logger

	mu           sync.Mutex
	state        State
	dates        pricing.DateRange
	price        *pricing.Result
	bookingID    int64
	bookedAmount models.Money
	payment      *PaymentResult

	inFlight  atomic.Bool
	cancelled atomic.Bool
}

// NewAttempt starts an Idle attempt for room on behalf of the session owner.
// sess may be nil; SubmitBooking then fails with ErrUnauthenticated.
func (w *Workflow) NewAttempt(sess *session.Session, room models.Room) *Attempt {
	id := uuid.NewString()
	var customer int64
	if sess != nil {
		customer = sess.UserID
	}
	return &Attempt{
		wf:      w,
		id:      id,
		room:    room,
		session: sess,
		state:   StateIdle,
		logger: w.logger.With().
			Str("attempt_id", id).
			Int64("room_id", room.RoomID).
			Int64("customer_id", customer).
			Logger(),
	}
}

func (a *Attempt) ID() string { return a.id }

func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Pricing returns the price for the current dates, if computed.
func (a *Attempt) Pricing() (pricing.Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.price == nil {
		return pricing.Result{}, false
	}
	return *a.price, true
}

func (a *Attempt) BookingID() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bookingID
}

// SetDates records the requested stay and recomputes the price. A failed
// computation leaves the attempt in EnteringDates with no price.
func (a *Attempt) SetDates(checkIn, checkOut time.Time) (pricing.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.transitionLocked(StateEnteringDates); err != nil {
		return pricing.Result{}, err
	}
	a.dates = pricing.DateRange{CheckIn: checkIn, CheckOut: checkOut}
	a.price = nil

	res, err := ComputePrice(a.room, checkIn, checkOut)
	if err != nil {
		a.logger.Debug().Err(err).Msg("pricing rejected")
		return pricing.Result{}, err
	}

	a.price = &res
	a.state = StatePricingComputed
	a.publishLocked(events.EventPricingComputed, nil)
	return res, nil
}

// SetDateStrings parses YYYY-MM-DD inputs and calls SetDates.
func (a *Attempt) SetDateStrings(checkIn, checkOut string) (pricing.Result, error) {
	in, err := pricing.ParseDate(checkIn)
	if err != nil {
		return pricing.Result{}, classify(err)
	}
	out, err := pricing.ParseDate(checkOut)
	if err != nil {
		return pricing.Result{}, classify(err)
	}
	return a.SetDates(in, out)
}

// SubmitBooking issues the create-booking call. The request is dispatched
// only from PricingComputed and only when the attempt is not cancelled.
func (a *Attempt) SubmitBooking(ctx context.Context) (int64, error) {
	if !a.inFlight.CompareAndSwap(false, true) {
		return 0, ErrInFlight
	}
	defer a.inFlight.Store(false)

	a.mu.Lock()
	if a.state != StatePricingComputed {
		err := a.invalidLocked(StateSubmittingBooking)
		a.mu.Unlock()
		return 0, err
	}
	if err := a.checkCancelLocked(ctx); err != nil {
		a.mu.Unlock()
		return 0, err
	}
	if a.session == nil || a.session.UserID == 0 {
		a.mu.Unlock()
		return 0, ErrUnauthenticated
	}

	req := models.BookRoomRequest{
		RoomID:       a.room.RoomID,
		CustomerID:   a.session.UserID,
		CheckInDate:  models.FormatDate(a.dates.CheckIn),
		CheckOutDate: models.FormatDate(a.dates.CheckOut),
		TotalAmount:  a.price.Total,
	}
	a.state = StateSubmittingBooking
	a.mu.Unlock()

	// Dispatched calls run to completion even if ctx is cancelled meanwhile;
	// the HTTP client timeout still bounds them.
	resp, err := a.wf.api.BookRoom(context.WithoutCancel(ctx), req)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		a.state = StateBookingFailed
		err = fmt.Errorf("%w: %w", ErrBookingFailed, err)
		a.finishLocked(events.EventBookingFailed, err)
		return 0, err
	}

	a.bookingID = resp.BookingID
	a.bookedAmount = req.TotalAmount
	a.state = StateBookingSucceeded
	a.logger.Info().Int64("booking_id", a.bookingID).Str("total", a.bookedAmount.String()).Msg("booking created")
	a.publishLocked(events.EventBookingCreated, nil)
	return a.bookingID, nil
}

// SubmitPayment pays for the booking created by this attempt, using the
// amount priced at booking time. The status reported by the payment service
// decides success; an empty status counts as the submitted Completed.
func (a *Attempt) SubmitPayment(ctx context.Context) (*PaymentResult, error) {
	if !a.inFlight.CompareAndSwap(false, true) {
		return nil, ErrInFlight
	}
	defer a.inFlight.Store(false)

	a.mu.Lock()
	if a.state != StateBookingSucceeded {
		err := a.invalidLocked(StateSubmittingPayment)
		a.mu.Unlock()
		return nil, err
	}
	if err := a.checkCancelLocked(ctx); err != nil {
		a.logger.Warn().Int64("booking_id", a.bookingID).Msg("attempt cancelled after booking, booking left unpaid")
		a.mu.Unlock()
		return nil, err
	}

	req := models.PaymentRequest{
		BookingID:     a.bookingID,
		Amount:        a.bookedAmount,
		PaymentDate:   models.FormatDate(a.wf.now()),
		PaymentStatus: models.PaymentStatusCompleted,
	}
	a.state = StateSubmittingPayment
	a.mu.Unlock()

	callCtx := context.WithoutCancel(ctx)
	resp, err := a.wf.api.ProcessPayment(callCtx, req)
	status := models.PaymentStatusCompleted
	if err == nil && resp != nil && resp.PaymentStatus != "" {
		status = resp.PaymentStatus
	}
	if err == nil && !strings.EqualFold(status, models.PaymentStatusCompleted) {
		if strings.EqualFold(status, models.PaymentStatusPending) {
			a.logger.Warn().Int64("booking_id", req.BookingID).Msg("payment left pending, booking stays unpaid")
		}
		err = fmt.Errorf("payment status %q", status)
	}

	if err != nil {
		return nil, a.failPayment(callCtx, fmt.Errorf("%w: %w", ErrPaymentFailed, err))
	}

	result := &PaymentResult{
		BookingID:   req.BookingID,
		Amount:      req.Amount,
		PaymentDate: req.PaymentDate,
		Status:      status,
	}
	if resp != nil {
		result.PaymentID = resp.PaymentID
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.payment = result
	a.state = StatePaymentSucceeded
	a.finishLocked(events.EventPaymentCompleted, nil)
	return result, nil
}

// failPayment moves to PaymentFailed and, when enabled, cancels the booking.
func (a *Attempt) failPayment(ctx context.Context, payErr error) error {
	a.mu.Lock()
	a.state = StatePaymentFailed
	bookingID := a.bookingID
	if !a.wf.compensate {
		a.finishLocked(events.EventPaymentFailed, payErr)
		a.mu.Unlock()
		return payErr
	}
	a.publishLocked(events.EventPaymentFailed, payErr)
	a.mu.Unlock()

	tries, cancelErr := a.wf.retry.do(ctx, func() error {
		return a.wf.api.CancelBooking(ctx, bookingID)
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	if cancelErr != nil {
		err := errors.Join(payErr, fmt.Errorf("%w: %w", ErrCompensationFailed, cancelErr))
		a.logger.Error().Err(cancelErr).Int64("booking_id", bookingID).Int("tries", tries).Msg("compensation failed")
		a.finishLocked("", err)
		return err
	}

	a.state = StateCompensated
	err := fmt.Errorf("%w: %w", ErrCompensated, payErr)
	a.finishLocked(events.EventBookingCancelled, err)
	return err
}

// Run performs the whole sequence: set dates, book, pay.
func (a *Attempt) Run(ctx context.Context, checkIn, checkOut time.Time) (*Outcome, error) {
	if _, err := a.SetDates(checkIn, checkOut); err != nil {
		return a.Outcome(), err
	}
	if _, err := a.SubmitBooking(ctx); err != nil {
		return a.Outcome(), err
	}
	if _, err := a.SubmitPayment(ctx); err != nil {
		return a.Outcome(), err
	}
	return a.Outcome(), nil
}

// Outcome snapshots the attempt.
func (a *Attempt) Outcome() *Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := &Outcome{
		AttemptID: a.id,
		State:     a.state,
		BookingID: a.bookingID,
	}
	if a.price != nil {
		out.Pricing = *a.price
	}
	if a.payment != nil {
		p := *a.payment
		out.Payment = &p
	}
	return out
}

// Cancel stops the attempt before its next network call. A call already in
// flight completes and its result is kept; the following call is refused.
func (a *Attempt) Cancel() {
	a.cancelled.Store(true)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.submitting() || a.state.Terminal() {
		return
	}
	a.state = StateCancelled
	a.finishLocked(events.EventAttemptCancelled, ErrCancelled)
}

func (a *Attempt) checkCancelLocked(ctx context.Context) error {
	if !a.cancelled.Load() && ctx.Err() == nil {
		return nil
	}
	err := ErrCancelled
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = fmt.Errorf("%w: %w", ErrCancelled, ctxErr)
	}
	if a.state != StateCancelled {
		a.state = StateCancelled
		a.finishLocked(events.EventAttemptCancelled, err)
	}
	return err
}

func (a *Attempt) transitionLocked(next State) error {
	if !a.state.CanTransition(next) {
		return a.invalidLocked(next)
	}
	a.state = next
	return nil
}

func (a *Attempt) invalidLocked(next State) error {
	if a.state == StateCancelled {
		return ErrCancelled
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, a.state, next)
}

// finishLocked records a terminal state: metrics, log, event.
func (a *Attempt) finishLocked(eventType string, err error) {
	metrics.IncWorkflowOutcome(string(a.state))

	ev := a.logger.Info()
	if err != nil {
		ev = a.logger.Warn().Err(err)
	}
	ev.Str("state", string(a.state)).Int64("booking_id", a.bookingID).Msg("booking attempt finished")

	if eventType != "" {
		a.publishLocked(eventType, err)
	}
}

func (a *Attempt) publishLocked(eventType string, err error) {
	if a.wf.bus == nil {
		return
	}
	payload := events.WorkflowEventPayload{
		AttemptID: a.id,
		State:     string(a.state),
		RoomID:    a.room.RoomID,
		BookingID: a.bookingID,
	}
	if a.session != nil {
		payload.CustomerID = a.session.UserID
	}
	if !a.dates.CheckIn.IsZero() {
		payload.CheckIn = models.FormatDate(a.dates.CheckIn)
	}
	if !a.dates.CheckOut.IsZero() {
		payload.CheckOut = models.FormatDate(a.dates.CheckOut)
	}
	if a.price != nil {
		payload.Amount = a.price.Total.String()
	}
	if err != nil {
		payload.Error = err.Error()
	}
	if pubErr := a.wf.bus.PublishJSON(eventType, payload); pubErr != nil {
		a.logger.Warn().Err(pubErr).Str("event", eventType).Msg("publish event")
	}
}
