package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name      string
		remaining time.Duration
		text      string
		secs      int
		overtime  bool
	}{
		{name: "full period", remaining: 20 * time.Minute, text: "20:00", secs: 1200},
		{name: "partial second floors down", remaining: 61*time.Second + 999*time.Millisecond, text: "01:01", secs: 61},
		{name: "zero", remaining: 0, text: "00:00", secs: 0},
		{name: "just past zero", remaining: -time.Millisecond, text: "-00:01", secs: -1, overtime: true},
		{name: "overtime minute", remaining: -61 * time.Second, text: "-01:01", secs: -61, overtime: true},
		{name: "long period", remaining: 120 * time.Minute, text: "120:00", secs: 7200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Format(tt.remaining)
			assert.Equal(t, tt.text, d.Text)
			assert.Equal(t, tt.secs, d.Seconds)
			assert.Equal(t, tt.overtime, d.Overtime)
		})
	}
}

func TestParseMinutes(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"15", 15},
		{" 7", 7},
		{"15 min", 15},
		{"", 0},
		{"abc", 0},
		{"-5", -5},
		{"+3", 3},
		{"-", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMinutes(tt.input))
		})
	}
}
