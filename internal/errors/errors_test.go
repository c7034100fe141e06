package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderError(t *testing.T) {
	err := NewProviderError("yahoo", "option_chain", "SPY", ErrTimeout)
	assert.Equal(t, "provider error [yahoo] option_chain SPY: operation timed out", err.Error())
	assert.True(t, Is(err, ErrTimeout))

	err = NewProviderError("yahoo", "expiries", "", ErrProviderUnavailable)
	assert.Equal(t, "provider error [yahoo] expiries: market data provider unavailable", err.Error())
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("range", "abc", "expected min-max", ErrInvalidRange)
	assert.Equal(t, "validation error: range (abc): expected min-max", err.Error())
	assert.True(t, Is(err, ErrInvalidRange))
}

func TestDataError(t *testing.T) {
	err := NewDataError("fixture", "SPY", "line 3: invalid strike", nil)
	assert.Equal(t, "data error [fixture] SPY: line 3: invalid strike", err.Error())

	wrapped := Wrapf(err, "loading %s", "SPY.csv")
	var derr *DataError
	require.True(t, As(wrapped, &derr))
	assert.Equal(t, "fixture", derr.Source)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Nil(t, Wrapf(nil, "ignored %d", 1))

	err := Wrap(ErrNoData, "2024-06-21")
	assert.Equal(t, "2024-06-21: no options data for expiry", err.Error())
	assert.True(t, errors.Is(err, ErrNoData))
	assert.False(t, Is(err, ErrNoStrikesInRange))
}
