package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"roomrenting/internal/models"
)

func (db *DB) CreateBuilding(ctx context.Context, b *models.Building) error {
	result, err := db.ExecContext(ctx, `INSERT INTO buildings (name, address) VALUES (?, ?)`, b.Name, b.Address)
	if err != nil {
		return fmt.Errorf("failed to create building: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	b.BuildingID = id
	return nil
}

func (db *DB) ListBuildings(ctx context.Context) ([]models.Building, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, address FROM buildings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}
	defer rows.Close()

	buildings := []models.Building{}
	for rows.Next() {
		var b models.Building
		if err := rows.Scan(&b.BuildingID, &b.Name, &b.Address); err != nil {
			return nil, fmt.Errorf("failed to scan building: %w", err)
		}
		buildings = append(buildings, b)
	}
	return buildings, rows.Err()
}

func (db *DB) CreateRoom(ctx context.Context, r *models.Room) error {
	var exists int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM buildings WHERE id = ?`, r.BuildingID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check building: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("building %d: %w", r.BuildingID, ErrNotFound)
	}

	query := `INSERT INTO rooms (building_id, room_type, price_per_month, max_occupancy, availability)
              VALUES (?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		r.BuildingID, r.RoomType, int64(r.PricePerMonth), r.MaxOccupancy, bool(r.Availability))
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	r.RoomID = id
	return nil
}

// ListRooms returns rooms joined with their building. A nil availability
// returns every room.
func (db *DB) ListRooms(ctx context.Context, availability *bool) ([]models.Room, error) {
	query := `SELECT r.id, r.building_id, b.name, b.address, r.room_type,
                     r.price_per_month, r.max_occupancy, r.availability
              FROM rooms r JOIN buildings b ON b.id = r.building_id`
	var args []any
	if availability != nil {
		query += ` WHERE r.availability = ?`
		args = append(args, *availability)
	}
	query += ` ORDER BY r.id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	rooms := []models.Room{}
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

func (db *DB) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	query := `SELECT r.id, r.building_id, b.name, b.address, r.room_type,
                     r.price_per_month, r.max_occupancy, r.availability
              FROM rooms r JOIN buildings b ON b.id = r.building_id
              WHERE r.id = ?`
	r, err := scanRoom(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *DB) UpdateRoomAvailability(ctx context.Context, id int64, available bool) error {
	result, err := db.ExecContext(ctx, `UPDATE rooms SET availability = ? WHERE id = ?`, available, id)
	if err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (models.Room, error) {
	var r models.Room
	var price int64
	var available bool
	err := row.Scan(&r.RoomID, &r.BuildingID, &r.BuildingName, &r.BuildingAddress,
		&r.RoomType, &price, &r.MaxOccupancy, &available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("failed to scan room: %w", err)
	}
	r.PricePerMonth = models.Money(price)
	r.Availability = models.Flag(available)
	return r, nil
}
