package messages

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReading(t *testing.T) {
	at := time.Unix(100, 0)

	r, err := ParseReading([]byte(" IleanaTapiaCastillo-23.5-61 \n"), at)
	require.NoError(t, err)
	assert.Equal(t, "IleanaTapiaCastillo", r.SensorName)
	assert.Equal(t, 23.5, r.Temperature)
	assert.Equal(t, 61.0, r.Humidity)
	assert.Equal(t, at, r.ReceivedAt)
}

func TestParseReadingUsesLastTwoFields(t *testing.T) {
	r, err := ParseReading([]byte("nodo-extra-info-20.1-55.2"), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "nodo", r.SensorName)
	assert.Equal(t, 20.1, r.Temperature)
	assert.Equal(t, 55.2, r.Humidity)
}

func TestParseReadingRejectsBadPayloads(t *testing.T) {
	_, err := ParseReading([]byte("nodo-20"), time.Time{})
	assert.ErrorIs(t, err, ErrIncompleteReading)

	_, err = ParseReading([]byte("-20-30"), time.Time{})
	assert.ErrorIs(t, err, ErrIncompleteReading)

	_, err = ParseReading([]byte("nodo-abc-30"), time.Time{})
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = ParseReading([]byte("nodo-20-nan%"), time.Time{})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestReadingPayloadRoundTrip(t *testing.T) {
	in := Reading{SensorName: "nodo", Temperature: 21.26, Humidity: 40}
	assert.Equal(t, "nodo-21.3-40.0", in.Payload())

	out, err := ParseReading([]byte(in.Payload()), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "nodo", out.SensorName)
}
