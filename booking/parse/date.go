// Package parse converts free-form French chat input into dates, times of day
// and address candidates. All functions are pure; failures are reported with a
// false flag and never panic.
package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	todayWords         = []string{"aujourd'hui", "aujourd’hui", "aujourd hui", "aujourdhui", "today"}
	tomorrowWords      = []string{"demain", "tomorrow"}
	afterTomorrowWords = []string{"après-demain", "apres-demain", "après demain", "apres demain", "day after tomorrow"}
)

// MonthNames maps accepted French month spellings to calendar months.
var MonthNames = map[string]time.Month{
	"janvier":   time.January,
	"février":   time.February,
	"fevrier":   time.February,
	"mars":      time.March,
	"avril":     time.April,
	"mai":       time.May,
	"juin":      time.June,
	"juillet":   time.July,
	"août":      time.August,
	"aout":      time.August,
	"septembre": time.September,
	"octobre":   time.October,
	"novembre":  time.November,
	"décembre":  time.December,
	"decembre":  time.December,
}

var (
	dayMonthRe = regexp.MustCompile(`(\d{1,2})\s+(janvier|février|fevrier|mars|avril|mai|juin|juillet|août|aout|septembre|octobre|novembre|décembre|decembre)`)
	numericRe  = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})(?:[/-](\d+))?`)
)

// Date resolves text against ref and returns the matching calendar day at
// midnight in ref's location.
//
// Relative keywords win over explicit dates. A day/month without a year uses
// ref's year unless that day already passed, in which case the next year is
// used. Impossible dates such as 31/04 are rejected.
func Date(text string, ref time.Time) (time.Time, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return time.Time{}, false
	}

	switch {
	case oneOf(text, todayWords):
		return midnight(ref, 0), true
	case oneOf(text, tomorrowWords):
		return midnight(ref, 1), true
	case oneOf(text, afterTomorrowWords):
		return midnight(ref, 2), true
	}

	if m := dayMonthRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month := MonthNames[m[2]]
		year := ref.Year()
		// Only the month is compared: "20 février" said on 25 February stays this year.
		if month < ref.Month() {
			year++
		}
		return calendarDate(year, month, day, ref.Location())
	}

	if m := numericRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		monthNum, _ := strconv.Atoi(m[2])
		if monthNum < 1 || monthNum > 12 {
			return time.Time{}, false
		}
		month := time.Month(monthNum)

		var year int
		switch len(m[3]) {
		case 0:
			year = ref.Year()
			if month < ref.Month() || (month == ref.Month() && day < ref.Day()) {
				year++
			}
		case 2:
			yy, _ := strconv.Atoi(m[3])
			year = 2000 + yy
		case 4:
			year, _ = strconv.Atoi(m[3])
		default:
			return time.Time{}, false
		}
		return calendarDate(year, month, day, ref.Location())
	}

	return time.Time{}, false
}

func oneOf(text string, words []string) bool {
	for _, w := range words {
		if text == w {
			return true
		}
	}
	return false
}

func midnight(ref time.Time, addDays int) time.Time {
	y, m, d := ref.Date()
	return time.Date(y, m, d+addDays, 0, 0, 0, 0, ref.Location())
}

// calendarDate rejects dates that time.Date would silently normalise.
func calendarDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
