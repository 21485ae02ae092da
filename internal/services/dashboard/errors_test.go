package dashboard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTripsBreaker(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unreachable", &TransportError{Err: errors.New("refused")}, true},
		{"server error", &TransportError{StatusCode: 503}, true},
		{"not found", &TransportError{StatusCode: 404}, false},
		{"bad body", &DecodeError{Err: errors.New("eof")}, false},
		{"cancelled", &TransportError{Err: context.Canceled}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tripsBreaker(tc.err))
		})
	}
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "status", errorKind(&TransportError{StatusCode: 500}))
	assert.Equal(t, "transport", errorKind(&TransportError{Err: errors.New("x")}))
	assert.Equal(t, "decode", errorKind(&DecodeError{}))
	assert.Equal(t, "", errorKind(nil))
}

func TestPartialHistoryErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("chart: %w", &PartialHistoryError{SensorID: 4, Err: &TransportError{StatusCode: 404}})
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "history of sensor 4")
}
