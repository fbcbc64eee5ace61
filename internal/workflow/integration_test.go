package workflow

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"roomrenting/internal/api"
	"roomrenting/internal/config"
	"roomrenting/internal/database"
	"roomrenting/internal/models"
	"roomrenting/internal/session"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startStub(t *testing.T) (*api.Client, *database.DB) {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "stub.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.ApplySeed(context.Background(), &database.Seed{
		Users: []database.SeedUser{
			{Name: "Tina", Email: "tina@example.com", Password: "tenantpw", PhoneNumber: "+15550000002", Role: models.RoleTenant},
		},
		Buildings: []database.SeedBuilding{{
			Name:    "North Hall",
			Address: "1 Campus Rd",
			Rooms:   []models.Room{{RoomType: "Single", PricePerMonth: 90000, MaxOccupancy: 1, Availability: true}},
		}},
	}))

	srv := api.NewHTTPServer(config.ServerConfig{JWTSecret: "secret", TokenTTLHours: 1}, db, &logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return api.NewClient(config.APIConfig{BaseURL: ts.URL, TimeoutSeconds: 5}, &logger), db
}

func loginTenant(t *testing.T, client *api.Client) (*session.Session, *api.Client) {
	t.Helper()
	mgr := session.NewManager(session.NewMemoryStore(), config.SessionConfig{Profile: "default", TTLHours: 1}, nil)
	sess, err := mgr.Login(context.Background(), client, "tina@example.com", "tenantpw")
	require.NoError(t, err)
	return sess, client.WithToken(sess.Token)
}

func TestWorkflowAgainstStub(t *testing.T) {
	client, db := startStub(t)
	sess, authed := loginTenant(t, client)
	ctx := context.Background()

	rooms, err := authed.ListRoomsByAvailability(ctx, true)
	require.NoError(t, err)
	require.Len(t, rooms, 1)

	wf := New(authed, config.BookingConfig{}, nil, nil)
	out, err := wf.NewAttempt(sess, rooms[0]).Run(ctx, checkIn, checkOut)
	require.NoError(t, err)
	assert.Equal(t, StatePaymentSucceeded, out.State)
	assert.Equal(t, models.Money(30000), out.Pricing.Total)

	booking, err := db.GetBooking(ctx, out.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.Money(30000), booking.TotalAmount)
	assert.Equal(t, models.PaymentStatusCompleted, booking.PaymentStatus)
	assert.Equal(t, sess.UserID, booking.CustomerID)

	// The same dates are now taken.
	_, err = wf.NewAttempt(sess, rooms[0]).Run(ctx, checkIn, checkOut)
	assert.ErrorIs(t, err, ErrBookingFailed)
	assert.Contains(t, Message(err), "not available")
}

// rejectingAPI changes the paid amount so the stub rejects the payment.
type rejectingAPI struct {
	*api.Client
}

func (r rejectingAPI) ProcessPayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentResponse, error) {
	req.Amount++
	return r.Client.ProcessPayment(ctx, req)
}

func TestWorkflowCompensatesAgainstStub(t *testing.T) {
	client, db := startStub(t)
	sess, authed := loginTenant(t, client)
	ctx := context.Background()

	rooms, err := authed.ListRoomsWithBuildings(ctx)
	require.NoError(t, err)

	t.Run("Gap without compensation", func(t *testing.T) {
		wf := New(rejectingAPI{authed}, config.BookingConfig{}, nil, nil)
		out, err := wf.NewAttempt(sess, rooms[0]).Run(ctx, checkIn, checkOut)
		assert.ErrorIs(t, err, ErrPaymentFailed)
		assert.Equal(t, StatePaymentFailed, out.State)

		booking, err := db.GetBooking(ctx, out.BookingID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusBooked, booking.Status)
		assert.Equal(t, models.PaymentStatusRejected, booking.PaymentStatus)
		require.NoError(t, db.CancelBooking(ctx, out.BookingID))
	})

	t.Run("Compensation enabled", func(t *testing.T) {
		wf := New(rejectingAPI{authed}, config.BookingConfig{CompensateOnPaymentFailure: true}, nil, nil)
		out, err := wf.NewAttempt(sess, rooms[0]).Run(ctx, checkIn, checkOut)
		assert.ErrorIs(t, err, ErrCompensated)
		assert.Equal(t, StateCompensated, out.State)

		booking, err := db.GetBooking(ctx, out.BookingID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, booking.Status)
	})
}
