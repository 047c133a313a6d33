package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"nmea-ng/internal/nmea"
)

const (
	gga = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	rmc = "$GNRMC,083559.00,A,4717.11437,N,00833.91522,E,0.004,77.52,091202,,,A,V*33"
	zda = "$GPZDA,201530.00,04,07,2002,00,00*60"
)

func put(t *testing.T, s *Store, at time.Time, text string) {
	t.Helper()
	sentence, err := nmea.Decode(text)
	require.NoError(t, err)
	require.NoError(t, s.Put(at, text, sentence))
}

func TestPutGetList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.db")
	s, err := Open(path, 0)
	require.NoError(t, err)

	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	put(t, s, t0, gga)
	put(t, s, t0.Add(time.Second), zda)
	put(t, s, t0.Add(2*time.Second), rmc)

	e, err := s.Get(nmea.GP, nmea.GGA)
	require.NoError(t, err)
	assert.Equal(t, gga, e.Text)
	assert.Equal(t, t0, e.Received)
	assert.Contains(t, string(e.Record), `"quality":"gps"`)

	decoded, err := e.Sentence()
	require.NoError(t, err)
	assert.IsType(t, &nmea.GGASentence{}, decoded)

	_, err = s.Get(nmea.GL, nmea.GGA)
	assert.True(t, errors.Is(err, ErrNotFound))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, nmea.GN, list[0].Talker)
	assert.Equal(t, nmea.RMC, list[0].Identifier)
	assert.Equal(t, nmea.GGA, list[1].Identifier)
	assert.Equal(t, nmea.ZDA, list[2].Identifier)
	require.NoError(t, s.Close())
}

func TestPutReplacesAndSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.db")
	s, err := Open(path, 0)
	require.NoError(t, err)

	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	put(t, s, t0, gga)
	newer := "$GPGGA,,,,,,0,00,99.99,,,,,,*48"
	put(t, s, t0.Add(time.Minute), newer)
	require.NoError(t, s.Close())

	ro, err := OpenReadOnly(path)
	require.NoError(t, err)
	defer ro.Close()

	e, err := ro.Get(nmea.GP, nmea.GGA)
	require.NoError(t, err)
	assert.Equal(t, newer, e.Text)
	assert.Equal(t, t0.Add(time.Minute), e.Received)

	list, err := ro.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOpenReadOnlyMissingFile(t *testing.T) {
	_, err := OpenReadOnly(filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}

// committed counts the entries that have reached the file, -1 on error.
func committed(s *Store) int {
	n := -1
	_ = s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(latestBucket).Stats().KeyN
		return nil
	})
	return n
}

func TestPutIsBufferedUntilFlush(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "latest.db"), time.Hour)
	require.NoError(t, err)
	defer s.Close()

	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		put(t, s, t0.Add(time.Duration(i)*100*time.Millisecond), gga)
	}
	put(t, s, t0, zda)
	assert.Equal(t, 0, committed(s))

	e, err := s.Get(nmea.GP, nmea.GGA)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(900*time.Millisecond), e.Received)

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, nmea.GGA, list[0].Identifier)
	assert.Equal(t, nmea.ZDA, list[1].Identifier)

	require.NoError(t, s.Flush())
	assert.Equal(t, 2, committed(s))
	require.NoError(t, s.Flush())

	put(t, s, t0.Add(time.Second), gga)
	list, err = s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, t0.Add(time.Second), list[0].Received)
}

func TestFlushRunsOnInterval(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "latest.db"), 10*time.Millisecond)
	require.NoError(t, err)
	defer s.Close()

	put(t, s, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), gga)
	require.Eventually(t, func() bool { return committed(s) == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestReadOnlyStoreRejectsPut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.db")
	s, err := Open(path, 0)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	ro, err := OpenReadOnly(path)
	require.NoError(t, err)
	defer ro.Close()

	sentence, err := nmea.Decode(gga)
	require.NoError(t, err)
	assert.ErrorIs(t, ro.Put(time.Now(), gga, sentence), bolt.ErrDatabaseReadOnly)
}
