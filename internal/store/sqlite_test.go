package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreshDatabaseHasSafeDefaults(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	epoch, err := s.LastActivationEpoch()
	require.NoError(t, err)
	assert.Equal(t, int64(0), epoch)

	hasEver, err := s.HasEverActivated()
	require.NoError(t, err)
	assert.False(t, hasEver)

	enabled, err := s.Enabled()
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestWriteAllRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		epoch   int64
		hasEver bool
		enabled bool
	}{
		{"after first cycle", 1700000000, true, true},
		{"disabled with history", 1700007200, true, false},
		{"reset record", 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSQLiteStore(":memory:")
			require.NoError(t, err)
			defer s.Close()

			require.NoError(t, s.WriteAll(tt.epoch, tt.hasEver, tt.enabled))

			epoch, err := s.LastActivationEpoch()
			require.NoError(t, err)
			assert.Equal(t, tt.epoch, epoch)

			hasEver, err := s.HasEverActivated()
			require.NoError(t, err)
			assert.Equal(t, tt.hasEver, hasEver)

			enabled, err := s.Enabled()
			require.NoError(t, err)
			assert.Equal(t, tt.enabled, enabled)
		})
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mister.db")

	s1, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.WriteAll(1700001234, true, false))
	require.NoError(t, s1.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	epoch, err := s2.LastActivationEpoch()
	require.NoError(t, err)
	assert.Equal(t, int64(1700001234), epoch)

	enabled, err := s2.Enabled()
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestWriteAllOverwritesSingleRow(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WriteAll(100, true, true))
	require.NoError(t, s.WriteAll(200, true, false))

	epoch, err := s.LastActivationEpoch()
	require.NoError(t, err)
	assert.Equal(t, int64(200), epoch)
}

func TestNoopDefaults(t *testing.T) {
	var s Store = Noop{}

	epoch, err := s.LastActivationEpoch()
	require.NoError(t, err)
	assert.Equal(t, int64(0), epoch)

	hasEver, err := s.HasEverActivated()
	require.NoError(t, err)
	assert.False(t, hasEver)

	enabled, err := s.Enabled()
	require.NoError(t, err)
	assert.True(t, enabled)

	assert.NoError(t, s.WriteAll(42, true, false))
}
