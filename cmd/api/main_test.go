package main

import (
	"os"
	"path/filepath"
	"testing"

	"roomrenting/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeed(t *testing.T) {
	logger := zerolog.Nop()

	seed, err := loadSeed(filepath.Join("..", "..", "configs", "seed.yaml"), &logger)
	require.NoError(t, err)
	require.NotNil(t, seed)

	require.Len(t, seed.Users, 2)
	assert.Equal(t, models.RoleAdmin, seed.Users[0].Role)

	require.Len(t, seed.Buildings, 2)
	rooms := seed.Buildings[1].Rooms
	require.Len(t, rooms, 2)
	assert.Equal(t, models.Money(145050), rooms[0].PricePerMonth)
	assert.True(t, bool(rooms[0].Availability))
	assert.False(t, bool(rooms[1].Availability))
}

func TestLoadSeedEmptyPath(t *testing.T) {
	t.Setenv("SEED_PATH", "")
	logger := zerolog.Nop()

	seed, err := loadSeed("", &logger)
	require.NoError(t, err)
	assert.Nil(t, seed)
}

func TestLoadSeedInvalid(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("buildings: [oops"), 0o600))

	_, err := loadSeed(path, &logger)
	assert.Error(t, err)
}
