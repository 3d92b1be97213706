package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Valid reports whether the clock is within 00:00..23:59.
func (c Clock) Valid() bool {
	return c.Hour >= 0 && c.Hour <= 23 && c.Minute >= 0 && c.Minute <= 59
}

// String renders the clock in French hour notation: "14h", "9h30".
func (c Clock) String() string {
	if c.Minute > 0 {
		return fmt.Sprintf("%dh%02d", c.Hour, c.Minute)
	}
	return fmt.Sprintf("%dh", c.Hour)
}

var (
	hourNotationRe = regexp.MustCompile(`^(\d{1,2})h(\d{2})?$`)
	colonRe        = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	periodRe       = regexp.MustCompile(`^(\d{1,2})(?:h|:)?(\d{2})?(am|pm|dusoir|soir|dumatin|matin)$`)
)

// TimeOfDay parses "14h", "9h30", "14:30", "2pm", "2:30pm" or "8h du soir".
func TimeOfDay(text string) (Clock, bool) {
	text = strings.ToLower(stripSpaces(text))
	if text == "" {
		return Clock{}, false
	}

	if m := hourNotationRe.FindStringSubmatch(text); m != nil {
		c := Clock{Hour: atoi(m[1]), Minute: atoi(m[2])}
		if c.Valid() {
			return c, true
		}
	}

	if m := colonRe.FindStringSubmatch(text); m != nil {
		c := Clock{Hour: atoi(m[1]), Minute: atoi(m[2])}
		if c.Valid() {
			return c, true
		}
	}

	if m := periodRe.FindStringSubmatch(text); m != nil {
		c := Clock{Hour: atoi(m[1]), Minute: atoi(m[2])}
		switch m[3] {
		case "pm", "dusoir", "soir":
			if c.Hour != 12 {
				c.Hour += 12
			}
		case "am", "dumatin", "matin":
			if c.Hour == 12 {
				c.Hour = 0
			}
		}
		if c.Valid() {
			return c, true
		}
	}

	return Clock{}, false
}

// IsAddress is a cheap pre-filter run before geocoding: the text needs a
// civic number and more than five characters.
func IsAddress(text string) bool {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) <= 5 {
		return false
	}
	return strings.IndexFunc(trimmed, unicode.IsDigit) >= 0
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
