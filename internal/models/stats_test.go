package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMinutes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"whole minutes", "34", 34},
		{"minutes and seconds", "34:30", 34.5},
		{"zero", "0", 0},
		{"double zero", "00", 0},
		{"empty", "", 0},
		{"whitespace", "  ", 0},
		{"garbage", "DNP", 0},
		{"colon with garbage seconds keeps minutes", "34:xx", 34},
		{"garbage minutes with colon", "xx:30", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseMinutes(tt.input))
		})
	}
}

func TestDidNotPlay(t *testing.T) {
	assert.True(t, GameRecord{Minutes: "00"}.DidNotPlay())
	assert.True(t, GameRecord{Minutes: "0"}.DidNotPlay())
	assert.True(t, GameRecord{Minutes: ""}.DidNotPlay())
	assert.False(t, GameRecord{Minutes: "34:00"}.DidNotPlay())
	assert.False(t, GameRecord{Minutes: "1"}.DidNotPlay())
}
