package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTimecode converts an HH:MM:SS[.fraction] timecode to seconds.
// Exactly three colon-separated components are required: hours and minutes
// as non-negative integers, seconds as a non-negative float. There is no
// upper bound on hours; a timecode is a duration-like offset, not wall
// clock time.
func ParseTimecode(tc string) (float64, error) {
	parts := strings.Split(tc, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q has %d components, want 3", ErrBadTimecode, tc, len(parts))
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("%w: bad hours in %q", ErrBadTimecode, tc)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("%w: bad minutes in %q", ErrBadTimecode, tc)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("%w: bad seconds in %q", ErrBadTimecode, tc)
	}

	return float64(hours)*3600 + float64(minutes)*60 + seconds, nil
}
