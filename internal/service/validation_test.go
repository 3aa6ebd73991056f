package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockTagAcceptsMinutesAndSeconds(t *testing.T) {
	validate := newRecordsValidator(nil)

	for _, v := range []string{"07:05", "23:59:59", "00:00"} {
		assert.NoError(t, validate.Var(v, "clock"), v)
	}
	for _, v := range []string{"7am", "24:00", "07:60", "07:05:61", "07:05:00Z"} {
		assert.Error(t, validate.Var(v, "clock"), v)
	}
}
