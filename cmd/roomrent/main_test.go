package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"roomrenting/internal/api"
	"roomrenting/internal/config"
	"roomrenting/internal/database"
	"roomrenting/internal/models"
	"roomrenting/internal/session"
	"roomrenting/internal/workflow"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCLI(t *testing.T) string {
	t.Helper()
	logger := zerolog.Nop()
	dir := t.TempDir()

	db, err := database.NewDB(filepath.Join(dir, "stub.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.ApplySeed(context.Background(), &database.Seed{
		Users: []database.SeedUser{
			{Name: "Admin", Email: "admin@example.com", Password: "adminpw", PhoneNumber: "+15550000001", Role: models.RoleAdmin},
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

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`
logging:
  level: error
api:
  base_url: %s
session:
  store: file
  path: %s
exports:
  path: %s
`, ts.URL, filepath.Join(dir, "session.json"), filepath.Join(dir, "exports"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	return cfgPath
}

func runCLI(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(append([]string{"-config", cfgPath}, args...), &out)
	return out.String(), err
}

func TestCLIRejectsBadStayBeforeCallingAPI(t *testing.T) {
	cfgPath := setupCLI(t)
	_, err := runCLI(t, cfgPath, "login", "-email", "tina@example.com", "-password", "tenantpw")
	require.NoError(t, err)

	// Same session file, but an API address that refuses connections.
	dir := filepath.Dir(cfgPath)
	offline := filepath.Join(dir, "offline.yaml")
	cfg := fmt.Sprintf(`
logging:
  level: error
api:
  base_url: http://127.0.0.1:1
session:
  store: file
  path: %s
`, filepath.Join(dir, "session.json"))
	require.NoError(t, os.WriteFile(offline, []byte(cfg), 0o600))

	for _, cmd := range []string{"quote", "book"} {
		t.Run(cmd, func(t *testing.T) {
			_, err := runCLI(t, offline, cmd, "-room", "1", "-in", "2024-02-05", "-out", "2024-02-01")
			assert.ErrorIs(t, err, workflow.ErrInvalidDateRange)

			_, err = runCLI(t, offline, cmd, "-room", "1", "-in", "", "-out", "2024-02-01")
			assert.ErrorIs(t, err, workflow.ErrValidation)
		})
	}

	_, err = runCLI(t, offline, "quote", "-room", "1", "-in", "2024-02-01", "-out", "2024-02-05")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, workflow.ErrInvalidDateRange)
}

func TestCLITenantFlow(t *testing.T) {
	cfgPath := setupCLI(t)

	_, err := runCLI(t, cfgPath, "whoami")
	assert.ErrorIs(t, err, session.ErrNoSession)

	out, err := runCLI(t, cfgPath, "login", "-email", "tina@example.com", "-password", "tenantpw")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Tina (Tenant)")

	out, err = runCLI(t, cfgPath, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "tina@example.com")

	out, err = runCLI(t, cfgPath, "rooms", "-available")
	require.NoError(t, err)
	assert.Contains(t, out, "North Hall")
	assert.Contains(t, out, "900.00")

	out, err = runCLI(t, cfgPath, "quote", "-room", "1", "-in", "2024-01-01", "-out", "2024-01-11")
	require.NoError(t, err)
	assert.Contains(t, out, "10 day(s)")
	assert.Contains(t, out, "= 300.00")

	_, err = runCLI(t, cfgPath, "quote", "-room", "1", "-in", "2024-02-05", "-out", "2024-02-01")
	assert.Error(t, err)

	out, err = runCLI(t, cfgPath, "book", "-room", "1", "-in", "2024-01-01", "-out", "2024-01-11")
	require.NoError(t, err)
	assert.Contains(t, out, "Booking 1 created")
	assert.Contains(t, out, "Payment Completed")

	_, err = runCLI(t, cfgPath, "bookings")
	assert.ErrorIs(t, err, session.ErrForbidden)

	_, err = runCLI(t, cfgPath, "logout")
	require.NoError(t, err)
	_, err = runCLI(t, cfgPath, "rooms")
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestCLIAdminFlow(t *testing.T) {
	cfgPath := setupCLI(t)

	_, err := runCLI(t, cfgPath, "login", "-email", "admin@example.com", "-password", "adminpw")
	require.NoError(t, err)

	out, err := runCLI(t, cfgPath, "admin", "add-building", "-name", "South Hall", "-address", "2 Campus Rd")
	require.NoError(t, err)
	assert.Contains(t, out, "Building added")

	out, err = runCLI(t, cfgPath, "admin", "add-room", "-building", "2", "-type", "Suite", "-price", "1500", "-capacity", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Room added")

	_, err = runCLI(t, cfgPath, "admin", "set-availability", "-room", "2", "-available=false")
	require.NoError(t, err)

	out, err = runCLI(t, cfgPath, "rooms", "-unavailable")
	require.NoError(t, err)
	assert.Contains(t, out, "Suite")
	assert.Contains(t, out, "1500.00")

	out, err = runCLI(t, cfgPath, "buildings")
	require.NoError(t, err)
	assert.Contains(t, out, "South Hall")

	_, err = runCLI(t, cfgPath, "book", "-room", "1", "-in", "2024-06-01", "-out", "2024-06-05")
	require.NoError(t, err)

	out, err = runCLI(t, cfgPath, "bookings")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-06-05")

	out, err = runCLI(t, cfgPath, "bookings", "-export")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 bookings")
}

func TestCLIUsage(t *testing.T) {
	cfgPath := setupCLI(t)

	_, err := runCLI(t, cfgPath)
	assert.ErrorIs(t, err, errUsage)

	_, err = runCLI(t, cfgPath, "fly")
	assert.ErrorIs(t, err, errUsage)

	_, err = runCLI(t, cfgPath, "login")
	assert.ErrorIs(t, err, errUsage)
}
