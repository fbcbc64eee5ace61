package database

import (
	"context"
	"errors"
	"fmt"

	"roomrenting/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// Seed is the initial catalog and accounts for a fresh stub database.
type Seed struct {
	Users     []SeedUser     `yaml:"users"`
	Buildings []SeedBuilding `yaml:"buildings"`
}

type SeedUser struct {
	Name        string      `yaml:"name"`
	Email       string      `yaml:"email"`
	Password    string      `yaml:"password"`
	PhoneNumber string      `yaml:"phone_number"`
	Role        models.Role `yaml:"role"`
}

type SeedBuilding struct {
	Name    string        `yaml:"name"`
	Address string        `yaml:"address"`
	Rooms   []models.Room `yaml:"rooms"`
}

// ApplySeed inserts the seed when the database has no buildings yet.
// Duplicate users are skipped.
func (db *DB) ApplySeed(ctx context.Context, seed *Seed) error {
	if seed == nil {
		return nil
	}

	for _, su := range seed.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", su.Email, err)
		}
		user := &UserRecord{
			User: models.User{
				Name:        su.Name,
				Email:       su.Email,
				PhoneNumber: su.PhoneNumber,
				UserType:    su.Role,
			},
			PasswordHash: string(hash),
		}
		if err := db.CreateUser(ctx, user); err != nil && !errors.Is(err, ErrDuplicateEmail) {
			return err
		}
	}

	var buildings int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM buildings`).Scan(&buildings); err != nil {
		return fmt.Errorf("failed to count buildings: %w", err)
	}
	if buildings > 0 {
		db.logger.Debug().Msg("catalog already present, skipping seed")
		return nil
	}

	rooms := 0
	for _, sb := range seed.Buildings {
		b := &models.Building{Name: sb.Name, Address: sb.Address}
		if err := db.CreateBuilding(ctx, b); err != nil {
			return err
		}
		for i := range sb.Rooms {
			r := sb.Rooms[i]
			r.BuildingID = b.BuildingID
			if err := db.CreateRoom(ctx, &r); err != nil {
				return err
			}
			rooms++
		}
	}

	db.logger.Info().
		Int("users", len(seed.Users)).
		Int("buildings", len(seed.Buildings)).
		Int("rooms", rooms).
		Msg("seed applied")
	return nil
}
