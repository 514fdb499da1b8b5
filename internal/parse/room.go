package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	roomDigitsRe = regexp.MustCompile(`(\d+)\s*$`)
	separatorRe  = regexp.MustCompile(`[\s#_/]+`)
)

// ParsedRoom holds the structured data parsed from a room number.
type ParsedRoom struct {
	Block string
	Floor int
	Seq   int
}

// ParseRoomNumber splits a room number such as "101", "B-1203" or "A#12 05"
// into block, floor and sequence. The last two digits are the sequence and
// the digits before them the floor; "7" and "07" are ground-floor rooms.
func ParseRoomNumber(raw string) (ParsedRoom, error) {
	s := strings.TrimSpace(raw)
	s = separatorRe.ReplaceAllString(s, "")

	loc := roomDigitsRe.FindStringSubmatchIndex(s)
	if loc == nil {
		return ParsedRoom{}, fmt.Errorf("unable to parse room number: %q", raw)
	}
	digits := s[loc[2]:loc[3]]
	block := strings.TrimRight(strings.TrimSpace(s[:loc[0]]), "-")

	floor := 0
	if len(digits) > 2 {
		f, err := strconv.Atoi(digits[:len(digits)-2])
		if err != nil {
			return ParsedRoom{}, fmt.Errorf("unable to parse floor from room number %q: %w", raw, err)
		}
		floor = f
		digits = digits[len(digits)-2:]
	}
	seq, err := strconv.Atoi(digits)
	if err != nil {
		return ParsedRoom{}, fmt.Errorf("unable to parse room number %q: %w", raw, err)
	}
	return ParsedRoom{Block: block, Floor: floor, Seq: seq}, nil
}

// FloorFromRoomNumber derives the floor from a room number.
func FloorFromRoomNumber(raw string) (int, error) {
	parsed, err := ParseRoomNumber(raw)
	if err != nil {
		return 0, err
	}
	return parsed.Floor, nil
}
