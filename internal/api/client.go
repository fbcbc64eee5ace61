package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"roomrenting/internal/config"
	"roomrenting/internal/logging"
	"roomrenting/internal/metrics"
	"roomrenting/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-ID"

const (
	cacheKeyRoomsWithBuildings = "rooms:with-buildings"
	cacheKeyRooms              = "rooms:all"
	cacheKeyBuildings          = "buildings"
	cacheKeyAvailabilityPrefix = "rooms:availability:"
)

// Client calls the rental API. It is safe for concurrent use; WithToken
// returns a copy bound to a session token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Message)
}

// IsStatus reports whether err carries the given HTTP status code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// NewClient constructs a client from the api section of the config.
func NewClient(cfg config.APIConfig, logger *zerolog.Logger) *Client {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = models.DefaultAPITimeout * time.Second
	}

	base := logging.Component(logger, "api-client")

	c := &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     base,
	}
	if cfg.RateLimit.RPS > 0 {
		burst := cfg.RateLimit.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), burst)
	}
	return c
}

// WithToken returns a client that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// UseRedisCache configures optional Redis caching for catalog GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	body := models.LoginRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, "login", http.MethodPost, "/user/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (string, error) {
	var resp models.MessageResponse
	if err := c.doJSON(ctx, "signup", http.MethodPost, "/user/signup", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ListRoomsWithBuildings returns every room joined with its building.
func (c *Client) ListRoomsWithBuildings(ctx context.Context) ([]models.Room, error) {
	return c.listRooms(ctx, "list-rooms-with-buildings", "/room/list-rooms-with-buildings", cacheKeyRoomsWithBuildings)
}

// ListRoomsByAvailability filters rooms on their availability flag.
func (c *Client) ListRoomsByAvailability(ctx context.Context, available bool) ([]models.Room, error) {
	flag := strconv.FormatBool(available)
	path := "/room/list-rooms-by-availability?availability=" + url.QueryEscape(flag)
	return c.listRooms(ctx, "list-rooms-by-availability", path, cacheKeyAvailabilityPrefix+flag)
}

// ListRooms is the admin listing without building addresses.
func (c *Client) ListRooms(ctx context.Context) ([]models.Room, error) {
	return c.listRooms(ctx, "list-rooms", "/room/list-rooms", cacheKeyRooms)
}

func (c *Client) listRooms(ctx context.Context, endpoint, path, cacheKey string) ([]models.Room, error) {
	var wrap struct {
		Rooms []models.Room `json:"rooms"`
	}

	if c.readCache(ctx, cacheKey, &wrap) {
		return wrap.Rooms, nil
	}

	if err := c.doJSON(ctx, endpoint, http.MethodGet, path, nil, &wrap); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, wrap)
	return wrap.Rooms, nil
}

func (c *Client) ListBuildings(ctx context.Context) ([]models.Building, error) {
	var wrap struct {
		Buildings []models.Building `json:"buildings"`
	}

	if c.readCache(ctx, cacheKeyBuildings, &wrap) {
		return wrap.Buildings, nil
	}

	if err := c.doJSON(ctx, "list-buildings", http.MethodGet, "/room/list-buildings", nil, &wrap); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKeyBuildings, wrap)
	return wrap.Buildings, nil
}

func (c *Client) AddBuilding(ctx context.Context, req models.NewBuildingRequest) (string, error) {
	var resp models.MessageResponse
	if err := c.doJSON(ctx, "add-building", http.MethodPost, "/room/add-building", req, &resp); err != nil {
		return "", err
	}
	c.invalidate(ctx, cacheKeyBuildings)
	return resp.Message, nil
}

func (c *Client) AddRoom(ctx context.Context, req models.NewRoomRequest) (string, error) {
	var resp models.MessageResponse
	if err := c.doJSON(ctx, "add-room", http.MethodPost, "/room/add-room", req, &resp); err != nil {
		return "", err
	}
	c.invalidateRooms(ctx)
	return resp.Message, nil
}

func (c *Client) UpdateRoomAvailability(ctx context.Context, roomID int64, available bool) (string, error) {
	var resp models.MessageResponse
	path := fmt.Sprintf("/room/room/update-availability/%d", roomID)
	body := map[string]bool{"availability": available}
	if err := c.doJSON(ctx, "update-availability", http.MethodPatch, path, body, &resp); err != nil {
		return "", err
	}
	c.invalidateRooms(ctx)
	return resp.Message, nil
}

func (c *Client) ListBookings(ctx context.Context) ([]models.Booking, error) {
	var wrap struct {
		Bookings []models.Booking `json:"bookings"`
	}
	if err := c.doJSON(ctx, "list-bookings", http.MethodGet, "/booking/bookings", nil, &wrap); err != nil {
		return nil, err
	}
	return wrap.Bookings, nil
}

// BookRoom creates a booking and returns the server-assigned identity.
func (c *Client) BookRoom(ctx context.Context, req models.BookRoomRequest) (*models.BookRoomResponse, error) {
	var resp models.BookRoomResponse
	if err := c.doJSON(ctx, "book-room", http.MethodPost, "/booking/book-room", req, &resp); err != nil {
		return nil, err
	}
	if resp.BookingID == 0 {
		return nil, errors.New("book-room response has no bookingID")
	}
	c.invalidateRooms(ctx)
	return &resp, nil
}

// CancelBooking is the compensating call for a booking whose payment failed.
func (c *Client) CancelBooking(ctx context.Context, bookingID int64) error {
	path := fmt.Sprintf("/booking/cancel-booking/%d", bookingID)
	if err := c.doJSON(ctx, "cancel-booking", http.MethodPost, path, nil, nil); err != nil {
		return err
	}
	c.invalidateRooms(ctx)
	return nil
}

func (c *Client) ProcessPayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentResponse, error) {
	var resp models.PaymentResponse
	if err := c.doJSON(ctx, "process-payment", http.MethodPost, "/payment/process-payment", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) invalidateRooms(ctx context.Context) {
	c.invalidate(ctx,
		cacheKeyRoomsWithBuildings,
		cacheKeyRooms,
		cacheKeyAvailabilityPrefix+"true",
		cacheKeyAvailabilityPrefix+"false",
	)
}

func (c *Client) invalidate(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doJSON(ctx context.Context, endpoint, method, path string, body any, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.addHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveAPI(endpoint, 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	metrics.ObserveAPI(endpoint, resp.StatusCode, time.Since(start))

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Int("status", resp.StatusCode).
		Str("request_id", req.Header.Get(requestIDHeader)).
		Dur("duration", time.Since(start)).
		Msg("api request")

	if resp.StatusCode >= 300 {
		return decodeStatusError(resp)
	}
	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func decodeStatusError(resp *http.Response) error {
	se := &StatusError{Code: resp.StatusCode}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &body) == nil {
		se.Message = body.Error
		if se.Message == "" {
			se.Message = body.Message
		}
	}
	return se
}

func (c *Client) addHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set(requestIDHeader, uuid.NewString())
}
