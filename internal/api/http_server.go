package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"roomrenting/internal/config"
	"roomrenting/internal/database"
	"roomrenting/internal/logging"
	"roomrenting/internal/metrics"
	"roomrenting/internal/models"
	"roomrenting/internal/validator"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// HTTPServer is a development stand-in for the rental API. It serves the same
// routes and JSON shapes the client expects.
type HTTPServer struct {
	cfg     config.ServerConfig
	db      *database.DB
	tokens  *TokenService
	limiter *rateLimiter
	logger  zerolog.Logger
	server  *http.Server
}

func NewHTTPServer(cfg config.ServerConfig, db *database.DB, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:     cfg,
		db:      db,
		tokens:  NewTokenService(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour),
		limiter: newRateLimiter(cfg.RateLimit),
		logger:  logging.Component(logger, "stub-api"),
	}

	mux := http.NewServeMux()
	auth := srv.authenticate
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return auth(requireRole(models.RoleAdmin, h))
	}

	mux.HandleFunc("POST /user/signup", srv.limitByHost(srv.handleSignup))
	mux.HandleFunc("POST /user/login", srv.limitByHost(srv.handleLogin))

	mux.HandleFunc("GET /room/list-rooms-with-buildings", auth(srv.handleListRooms))
	mux.HandleFunc("GET /room/list-rooms-by-availability", auth(srv.handleListRoomsByAvailability))
	mux.HandleFunc("GET /room/list-rooms", auth(srv.handleListRooms))
	mux.HandleFunc("GET /room/list-buildings", auth(srv.handleListBuildings))
	mux.HandleFunc("POST /room/add-building", admin(srv.handleAddBuilding))
	mux.HandleFunc("POST /room/add-room", admin(srv.handleAddRoom))
	mux.HandleFunc("PATCH /room/room/update-availability/{id}", admin(srv.handleUpdateAvailability))

	mux.HandleFunc("GET /booking/bookings", admin(srv.handleListBookings))
	mux.HandleFunc("POST /booking/book-room", auth(srv.handleBookRoom))
	mux.HandleFunc("POST /booking/cancel-booking/{id}", auth(srv.handleCancelBooking))

	mux.HandleFunc("POST /payment/process-payment", auth(srv.handleProcessPayment))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.loggingMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler exposes the routed handler, mainly for httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("stub rental API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validator.Check(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	user := &database.UserRecord{
		User: models.User{
			Name:        req.Name,
			Email:       req.Email,
			PhoneNumber: req.PhoneNumber,
			UserType:    req.UserType,
		},
		PasswordHash: string(hash),
	}
	if err := s.db.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.MessageResponse{Message: "User registered successfully"})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		s.internalError(w, r, err)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := s.tokens.Issue(user.UserID, user.UserType)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Token:       token,
		UserID:      user.UserID,
		Name:        user.Name,
		Email:       user.Email,
		UserType:    user.UserType,
		PhoneNumber: user.PhoneNumber,
	})
}

func (s *HTTPServer) handleListRooms(w http.ResponseWriter, r *http.Request) {
	s.writeRooms(w, r, nil)
}

func (s *HTTPServer) handleListRoomsByAvailability(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("availability"))
	available, err := strconv.ParseBool(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "availability must be true or false")
		return
	}
	s.writeRooms(w, r, &available)
}

func (s *HTTPServer) writeRooms(w http.ResponseWriter, r *http.Request, availability *bool) {
	rooms, err := s.db.ListRooms(r.Context(), availability)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (s *HTTPServer) handleListBuildings(w http.ResponseWriter, r *http.Request) {
	buildings, err := s.db.ListBuildings(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"buildings": buildings})
}

func (s *HTTPServer) handleAddBuilding(w http.ResponseWriter, r *http.Request) {
	var req models.NewBuildingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	b := &models.Building{Name: strings.TrimSpace(req.Name), Address: strings.TrimSpace(req.Address)}
	if b.Name == "" || b.Address == "" {
		writeError(w, http.StatusBadRequest, "name and address are required")
		return
	}
	if err := s.db.CreateBuilding(r.Context(), b); err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.MessageResponse{Message: "Building added successfully"})
}

func (s *HTTPServer) handleAddRoom(w http.ResponseWriter, r *http.Request) {
	var req models.NewRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.RoomType) == "" || req.PricePerMonth <= 0 || req.MaxOccupancy <= 0 {
		writeError(w, http.StatusBadRequest, "roomType, a positive pricePerMonth and maxOccupancy are required")
		return
	}

	room := &models.Room{
		BuildingID:    req.BuildingID,
		RoomType:      strings.TrimSpace(req.RoomType),
		PricePerMonth: req.PricePerMonth,
		MaxOccupancy:  req.MaxOccupancy,
		Availability:  req.Availability,
	}
	if err := s.db.CreateRoom(r.Context(), room); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "building not found")
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.MessageResponse{Message: "Room added successfully"})
}

func (s *HTTPServer) handleUpdateAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Availability models.Flag `json:"availability"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.db.UpdateRoomAvailability(r.Context(), id, bool(body.Availability)); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Room availability updated"})
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.db.ListBookings(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleBookRoom(w http.ResponseWriter, r *http.Request) {
	var req models.BookRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}

	claims, _ := claimsFromContext(r.Context())
	if claims.Role != models.RoleAdmin && req.CustomerID != claims.UserID {
		writeError(w, http.StatusForbidden, "customerID does not match the session")
		return
	}

	checkIn, errIn := time.Parse(models.DateLayout, req.CheckInDate)
	checkOut, errOut := time.Parse(models.DateLayout, req.CheckOutDate)
	if errIn != nil || errOut != nil {
		writeError(w, http.StatusBadRequest, "checkInDate and checkOutDate must be YYYY-MM-DD")
		return
	}
	if !checkOut.After(checkIn) {
		writeError(w, http.StatusBadRequest, "checkOutDate must be after checkInDate")
		return
	}
	if req.TotalAmount <= 0 {
		writeError(w, http.StatusBadRequest, "totalAmount must be positive")
		return
	}

	id, err := s.db.CreateBooking(r.Context(), req)
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "room not found")
		return
	case errors.Is(err, database.ErrNotAvailable):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.internalError(w, r, err)
		return
	}

	s.logger.Info().Int64("booking_id", id).Int64("room_id", req.RoomID).Msg("booking created")
	writeJSON(w, http.StatusCreated, models.BookRoomResponse{BookingID: id, Message: "Room booked successfully"})
}

func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	booking, err := s.db.GetBooking(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	claims, _ := claimsFromContext(r.Context())
	if claims.Role != models.RoleAdmin && booking.CustomerID != claims.UserID {
		writeError(w, http.StatusForbidden, errPermissionDenied.Error())
		return
	}

	if err := s.db.CancelBooking(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrAlreadyCancelled) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.internalError(w, r, err)
		return
	}

	s.logger.Info().Int64("booking_id", id).Msg("booking cancelled")
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Booking cancelled"})
}

// handleProcessPayment accepts the payment when the amount matches the booking
// total and rejects it otherwise. Either decision is a 201 with the status in
// the body.
func (s *HTTPServer) handleProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := time.Parse(models.DateLayout, req.PaymentDate); err != nil {
		writeError(w, http.StatusBadRequest, "paymentDate must be YYYY-MM-DD")
		return
	}

	booking, err := s.db.GetBooking(r.Context(), req.BookingID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if booking.Status == models.BookingStatusCancelled {
		writeError(w, http.StatusConflict, "booking is cancelled")
		return
	}

	status := models.PaymentStatusCompleted
	if req.Amount != booking.TotalAmount {
		status = models.PaymentStatusRejected
	}

	id, err := s.db.CreatePayment(r.Context(), req, status)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	s.logger.Info().
		Int64("booking_id", req.BookingID).
		Int64("payment_id", id).
		Str("status", status).
		Msg("payment processed")
	writeJSON(w, http.StatusCreated, models.PaymentResponse{
		PaymentID:     id,
		PaymentStatus: status,
		Message:       "Payment " + strings.ToLower(status),
	})
}

func (s *HTTPServer) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		metrics.IncHTTP(pattern)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Str("request_id", r.Header.Get(requestIDHeader)).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := decoder.Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
