package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"roomrenting/internal/models"
)

// CreateBooking inserts a booking after checking, inside one transaction,
// that the room is open for booking and has no overlapping active booking.
func (db *DB) CreateBooking(ctx context.Context, req models.BookRoomRequest) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var available bool
	err = tx.QueryRowContext(ctx, `SELECT availability FROM rooms WHERE id = ?`, req.RoomID).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("room %d: %w", req.RoomID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to check room: %w", err)
	}
	if !available {
		return 0, ErrNotAvailable
	}

	var overlapping int
	queryOverlap := `SELECT COUNT(*) FROM bookings
                     WHERE room_id = ? AND status != ? AND check_in < ? AND check_out > ?`
	err = tx.QueryRowContext(ctx, queryOverlap,
		req.RoomID, models.BookingStatusCancelled, req.CheckOutDate, req.CheckInDate).Scan(&overlapping)
	if err != nil {
		return 0, fmt.Errorf("failed to check overlap in tx: %w", err)
	}
	if overlapping > 0 {
		return 0, ErrNotAvailable
	}

	queryInsert := `INSERT INTO bookings (room_id, customer_id, check_in, check_out, total_amount, status, created_at, updated_at)
                    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, queryInsert,
		req.RoomID,
		req.CustomerID,
		req.CheckInDate,
		req.CheckOutDate,
		int64(req.TotalAmount),
		models.BookingStatusBooked,
		now,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit booking: %w", err)
	}
	return id, nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	bookings, err := db.queryBookings(ctx, `WHERE bk.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, ErrNotFound
	}
	return &bookings[0], nil
}

// ListBookings returns all bookings with room, building and latest payment.
func (db *DB) ListBookings(ctx context.Context) ([]models.Booking, error) {
	return db.queryBookings(ctx, "")
}

func (db *DB) queryBookings(ctx context.Context, where string, args ...any) ([]models.Booking, error) {
	query := `SELECT bk.id, bk.room_id, bk.customer_id, u.name, b.name, r.room_type,
                     bk.check_in, bk.check_out, bk.total_amount, bk.status,
                     COALESCE(p.amount, 0), COALESCE(p.status, '')
              FROM bookings bk
              JOIN rooms r ON r.id = bk.room_id
              JOIN buildings b ON b.id = r.building_id
              JOIN users u ON u.id = bk.customer_id
              LEFT JOIN payments p ON p.id = (
                  SELECT MAX(id) FROM payments WHERE booking_id = bk.id
              ) ` + where + ` ORDER BY bk.id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		var bk models.Booking
		var total, paid int64
		err := rows.Scan(&bk.BookingID, &bk.RoomID, &bk.CustomerID, &bk.CustomerName,
			&bk.BuildingName, &bk.RoomType, &bk.CheckInDate, &bk.CheckOutDate,
			&total, &bk.Status, &paid, &bk.PaymentStatus)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bk.TotalAmount = models.Money(total)
		bk.PaymentAmount = models.Money(paid)
		bookings = append(bookings, bk)
	}
	return bookings, rows.Err()
}

func (db *DB) CancelBooking(ctx context.Context, id int64) error {
	booking, err := db.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if booking.Status == models.BookingStatusCancelled {
		return ErrAlreadyCancelled
	}

	_, err = db.ExecContext(ctx, `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
		models.BookingStatusCancelled, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	return nil
}

// CreatePayment records a payment against an existing booking.
func (db *DB) CreatePayment(ctx context.Context, req models.PaymentRequest, status string) (int64, error) {
	if _, err := db.GetBooking(ctx, req.BookingID); err != nil {
		return 0, fmt.Errorf("booking %d: %w", req.BookingID, err)
	}

	query := `INSERT INTO payments (booking_id, amount, payment_date, status) VALUES (?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query, req.BookingID, int64(req.Amount), req.PaymentDate, status)
	if err != nil {
		return 0, fmt.Errorf("failed to create payment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}
