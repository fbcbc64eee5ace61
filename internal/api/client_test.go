package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"roomrenting/internal/config"
	"roomrenting/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(config.APIConfig{BaseURL: ts.URL, TimeoutSeconds: 5}, nil)
}

func TestClientBookRoom(t *testing.T) {
	var got models.BookRoomRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/booking/book-room", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(requestIDHeader))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusCreated, map[string]any{"bookingID": 42})
	}).WithToken("tok")

	resp, err := client.BookRoom(context.Background(), models.BookRoomRequest{
		RoomID:       3,
		CustomerID:   9,
		CheckInDate:  "2024-03-01",
		CheckOutDate: "2024-03-11",
		TotalAmount:  30000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.BookingID)
	assert.Equal(t, models.Money(30000), got.TotalAmount)
	assert.Equal(t, "2024-03-11", got.CheckOutDate)
}

func TestClientBookRoomWithoutID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})

	_, err := client.BookRoom(context.Background(), models.BookRoomRequest{})
	assert.Error(t, err)
}

func TestClientStatusError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"Error field", http.StatusConflict, `{"error":"room taken"}`, "room taken"},
		{"Message field", http.StatusBadRequest, `{"message":"bad dates"}`, "bad dates"},
		{"Not JSON", http.StatusBadGateway, `<html>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.ProcessPayment(context.Background(), models.PaymentRequest{BookingID: 1})
			require.Error(t, err)
			assert.True(t, IsStatus(err, tt.status))
			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.message, se.Message)
		})
	}
}

func TestClientListRoomsAcceptsIntegerFlags(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("availability"))
		_, _ = w.Write([]byte(`{"rooms":[{"RoomID":1,"RoomType":"Single","BuildingName":"North Hall","PricePerMonth":"900.00","MaxOccupancy":1,"Availability":1}]}`))
	})

	rooms, err := client.ListRoomsByAvailability(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, models.Money(90000), rooms[0].PricePerMonth)
	assert.True(t, bool(rooms[0].Availability))
}

func TestClientRedisCache(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdb.Close()

	var listCalls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/room/list-rooms-with-buildings":
			listCalls.Add(1)
			writeJSON(w, http.StatusOK, map[string]any{"rooms": []models.Room{{RoomID: 1, RoomType: "Single"}}})
		case "/room/add-room":
			writeJSON(w, http.StatusCreated, models.MessageResponse{Message: "Room added successfully"})
		default:
			http.NotFound(w, r)
		}
	})
	client.UseRedisCache(rdb, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rooms, err := client.ListRoomsWithBuildings(ctx)
		require.NoError(t, err)
		assert.Len(t, rooms, 1)
	}
	assert.Equal(t, int32(1), listCalls.Load())
	assert.True(t, s.Exists(cacheKeyRoomsWithBuildings))

	msg, err := client.AddRoom(ctx, models.NewRoomRequest{BuildingID: 1, RoomType: "Double", PricePerMonth: 100, MaxOccupancy: 2})
	require.NoError(t, err)
	assert.Equal(t, "Room added successfully", msg)
	assert.False(t, s.Exists(cacheKeyRoomsWithBuildings))

	_, err = client.ListRoomsWithBuildings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), listCalls.Load())
}

func TestClientRespectsContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.MessageResponse{})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListBuildings(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// The client against the real stub server, end to end.
func TestClientAgainstStub(t *testing.T) {
	ts, _ := newTestHTTPServer(t, config.RateLimitConfig{})
	base := NewClient(config.APIConfig{BaseURL: ts.URL, TimeoutSeconds: 5}, nil)
	ctx := context.Background()

	_, err := base.Login(ctx, "admin@example.com", "wrong")
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	login, err := base.Login(ctx, "admin@example.com", "adminpw")
	require.NoError(t, err)
	admin := base.WithToken(login.Token)

	_, err = admin.AddBuilding(ctx, models.NewBuildingRequest{Name: "East Wing", Address: "3 Campus Rd"})
	require.NoError(t, err)

	buildings, err := admin.ListBuildings(ctx)
	require.NoError(t, err)
	assert.Len(t, buildings, 2)

	_, err = admin.UpdateRoomAvailability(ctx, 2, true)
	require.NoError(t, err)

	rooms, err := admin.ListRoomsByAvailability(ctx, true)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	resp, err := admin.BookRoom(ctx, models.BookRoomRequest{
		RoomID: 1, CustomerID: login.UserID,
		CheckInDate: "2024-05-01", CheckOutDate: "2024-05-02", TotalAmount: 3000,
	})
	require.NoError(t, err)

	bookings, err := admin.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, resp.BookingID, bookings[0].BookingID)
	assert.Equal(t, "North Hall", bookings[0].BuildingName)

	require.NoError(t, admin.CancelBooking(ctx, resp.BookingID))
	assert.True(t, IsStatus(admin.CancelBooking(ctx, resp.BookingID), http.StatusConflict))
}
