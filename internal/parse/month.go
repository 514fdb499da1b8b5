package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthRe = regexp.MustCompile(`^(\d{4})\s*[-/.]\s*(\d{1,2})$`)

// Month normalizes a billing month such as "2024-5", "2024/05" or "2024-05"
// to the canonical "YYYY-MM" form.
func Month(raw string) (string, error) {
	m := monthRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", fmt.Errorf("unable to parse month: %q", raw)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if year < 1970 || month < 1 || month > 12 {
		return "", fmt.Errorf("month out of range: %q", raw)
	}
	return fmt.Sprintf("%04d-%02d", year, month), nil
}

// MonthOf formats t as a billing month.
func MonthOf(t time.Time) string {
	return t.Format("2006-01")
}
