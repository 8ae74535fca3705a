package babel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateSerializerRoundTrip(t *testing.T) {
	t.Parallel()

	ds, err := NewDateSerializer("%Y-%m-%dT%H:%M:%SZ")
	require.NoError(t, err)

	instant := time.Date(2015, time.May, 12, 15, 50, 38, 0, time.UTC)

	v, err := ds.Serialize(instant)
	require.NoError(t, err)
	assert.Equal(t, String("2015-05-12T15:50:38Z"), v)

	got := roundTrip[time.Time](t, ds, instant)
	assert.True(t, instant.Equal(got), "got %v", got)
}

func TestDateSerializerTruncatesToPattern(t *testing.T) {
	t.Parallel()

	ds, err := NewDateSerializer("%F %T")
	require.NoError(t, err)

	instant := time.Date(2024, time.March, 9, 17, 4, 5, 999_000_000, time.UTC)
	got := roundTrip[time.Time](t, ds, instant)
	assert.True(t, instant.Truncate(time.Second).Equal(got))
}

func TestDateSerializerConvertsToUTC(t *testing.T) {
	t.Parallel()

	ds, err := NewDateSerializer("%Y-%m-%d %H:%M")
	require.NoError(t, err)

	local := time.Date(2020, time.January, 1, 1, 30, 0, 0, time.FixedZone("", 2*3600))
	assert.Equal(t, "2019-12-31 23:30", ds.Format(local))
}

func TestDateSerializerKeepsOffset(t *testing.T) {
	t.Parallel()

	ds, err := NewDateSerializer("%FT%T%:z")
	require.NoError(t, err)

	instant := time.Date(2020, time.July, 4, 8, 0, 0, 0, time.FixedZone("", -7*3600))
	assert.Equal(t, "2020-07-04T08:00:00-07:00", ds.Format(instant))

	got := roundTrip[time.Time](t, ds, instant)
	assert.True(t, instant.Equal(got))

	_, offset := got.Zone()
	assert.Equal(t, -7*3600, offset)
}

func TestDateSerializerLiteralLetters(t *testing.T) {
	t.Parallel()

	// Every word here is also a layout token in some date formatting language.
	ds, err := NewDateSerializer("Mon Jan %d PM MST 2006 yyyy")
	require.NoError(t, err)

	instant := time.Date(2001, time.February, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Mon Jan 03 PM MST 2006 yyyy", ds.Format(instant))

	got, err := ds.Deserialize(String("Mon Jan 03 PM MST 2006 yyyy"))
	require.NoError(t, err)
	assert.Equal(t, 3, got.Day())
}

func TestDateSerializerNames(t *testing.T) {
	t.Parallel()

	ds, err := NewDateSerializer("%a, %e %b %Y %I:%M:%S %p")
	require.NoError(t, err)

	instant := time.Date(2009, time.November, 7, 18, 5, 1, 0, time.UTC)
	assert.Equal(t, "Sat,  7 Nov 2009 06:05:01 PM", ds.Format(instant))

	got := roundTrip[time.Time](t, ds, instant)
	assert.True(t, instant.Equal(got))
}

func TestDateSerializerErrors(t *testing.T) {
	t.Parallel()

	_, err := NewDateSerializer("%Y-%Q")
	require.ErrorIs(t, err, ErrDatePattern)

	ds, err := NewDateSerializer("%Y-%m-%d")
	require.NoError(t, err)

	_, err = ds.Deserialize(Int64(20240101))
	require.ErrorIs(t, err, ErrType)

	_, err = ds.Deserialize(String("01/02/2024"))
	require.ErrorIs(t, err, ErrType)
	assert.Contains(t, err.Error(), "%Y-%m-%d")
}

func TestDateSerializerUTS35(t *testing.T) {
	t.Parallel()

	ds, err := NewDateSerializer("%Y-%m-%dT%H:%M:%SZ")
	require.NoError(t, err)
	assert.Equal(t, "%Y-%m-%dT%H:%M:%SZ", ds.Pattern())

	p, err := ds.UTS35()
	require.NoError(t, err)
	assert.Equal(t, "yyyy-MM-dd'T'HH:mm:ss'Z'", p)
}
