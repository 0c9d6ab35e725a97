package timer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Display is what the host renders for one timer
type Display struct {
	Text     string `json:"text"`
	Seconds  int    `json:"seconds"`
	Running  bool   `json:"running"`
	Paused   bool   `json:"paused"`
	Overtime bool   `json:"overtime"`
}

// Format renders a remaining duration as MM:SS, or -MM:SS once past zero
func Format(remaining time.Duration) Display {
	secs := seconds(remaining)

	abs := secs
	if abs < 0 {
		abs = -abs
	}
	text := fmt.Sprintf("%02d:%02d", abs/60, abs%60)
	if secs < 0 {
		text = "-" + text
	}

	return Display{
		Text:     text,
		Seconds:  secs,
		Overtime: secs < 0,
	}
}

// seconds floors d to whole seconds, so -1ms is already -1
func seconds(d time.Duration) int {
	q := d / time.Second
	if d%time.Second != 0 && d < 0 {
		q--
	}
	return int(q)
}

// ParseMinutes reads the leading integer of s the way the reset box always has:
// "15" and "15 min" are 15, anything without leading digits is 0 (which Reset treats as the default).
func ParseMinutes(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
