package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/holdings/pkg/config"
	"github.com/wonny/holdings/pkg/logger"
)

// exerciseBridge runs the contract every driver must honour
func exerciseBridge(t *testing.T, b Bridge) {
	t.Helper()
	ctx := context.Background()

	_, found, err := b.Load(ctx, "funds")
	require.NoError(t, err)
	assert.False(t, found, "never-saved key is absent, not an error")

	require.NoError(t, b.Save(ctx, "funds", []byte(`{"items":[1]}`)))
	blob, found, err := b.Load(ctx, "funds")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"items":[1]}`, string(blob))

	require.NoError(t, b.Save(ctx, "funds", []byte(`{"items":[1,2]}`)))
	blob, _, err = b.Load(ctx, "funds")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[1,2]}`, string(blob), "save overwrites")

	_, found, err = b.Load(ctx, "investments")
	require.NoError(t, err)
	assert.False(t, found, "keys are independent")

	for _, bad := range []string{"", "../etc", "Funds", "a/b"} {
		assert.ErrorIs(t, b.Save(ctx, bad, []byte(`{}`)), ErrInvalidKey, bad)
		_, _, err := b.Load(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	exerciseBridge(t, m)
	assert.Equal(t, config.DriverMemory, m.Driver())
}

func TestMemory_IsolatesCallerBuffers(t *testing.T) {
	m := NewMemory()
	buf := []byte(`{"a":1}`)
	require.NoError(t, m.Save(context.Background(), "funds", buf))
	buf[2] = 'X'

	got, _, err := m.Load(context.Background(), "funds")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestMemory_FailSave(t *testing.T) {
	m := NewMemory()
	m.FailSave = errors.New("disk full")
	assert.EqualError(t, m.Save(context.Background(), "funds", []byte(`{}`)), "disk full")
}

func TestFilesystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	fs, err := NewFilesystem(dir)
	require.NoError(t, err)
	exerciseBridge(t, fs)

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "no temp files left behind")
	assert.FileExists(t, filepath.Join(dir, "funds.json"))
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holdings.db")
	s, err := NewSQLite(context.Background(), path)
	require.NoError(t, err)
	exerciseBridge(t, s)

	// reopen: data survives
	require.NoError(t, s.Close())
	s2, err := NewSQLite(context.Background(), path)
	require.NoError(t, err)
	defer s2.Close()
	blob, found, err := s2.Load(context.Background(), "funds")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"items":[1,2]}`, string(blob))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		driver string
		want   string
	}{
		{config.DriverMemory, config.DriverMemory},
		{config.DriverFilesystem, config.DriverFilesystem},
		{config.DriverSQLite, config.DriverSQLite},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			cfg := &config.Config{Storage: config.StorageConfig{
				Driver:     tt.driver,
				Dir:        filepath.Join(dir, tt.driver),
				SQLitePath: filepath.Join(dir, tt.driver, "h.db"),
				Prefix:     "test",
			}}
			b, err := Open(ctx, cfg, logger.NewNop())
			require.NoError(t, err)
			defer b.Close()

			assert.Equal(t, tt.want, b.Driver())
			exerciseBridge(t, b)
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "floppy"}}
	_, err := Open(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
