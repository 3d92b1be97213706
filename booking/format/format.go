// Package format renders user-facing French messages from session snapshots.
// Every function is deterministic and read-only with respect to its inputs.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/qemplois/assistant/booking/parse"
)

// Currency is appended to every formatted amount.
const Currency = "$"

var (
	weekdays = [...]string{"Dimanche", "Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi"}
	months   = [...]string{"janvier", "février", "mars", "avril", "mai", "juin",
		"juillet", "août", "septembre", "octobre", "novembre", "décembre"}
)

// Price rounds amount to the nearest integer: Price(45.99) == "46 $".
func Price(amount float64) string {
	return strconv.FormatFloat(math.Round(amount), 'f', 0, 64) + " " + Currency
}

// Distance renders km in meters below one kilometre, else with one decimal.
func Distance(km float64) string {
	if m := int(math.Round(km * 1000)); m < 1000 {
		return fmt.Sprintf("%d m", m)
	}
	return fmt.Sprintf("%.1f km", km)
}

// DateLong renders "<Weekday> <day> <month>", e.g. "Mardi 20 octobre".
func DateLong(t time.Time) string {
	return fmt.Sprintf("%s %d %s", weekdays[t.Weekday()], t.Day(), months[t.Month()-1])
}

// Rating renders a star rating with one decimal.
func Rating(r float64) string {
	return strconv.FormatFloat(r, 'f', 1, 64)
}

// Choices lists 1..n the way French speakers enumerate: "1, 2 ou 3".
func Choices(n int) string {
	switch {
	case n <= 0:
		return ""
	case n == 1:
		return "1"
	}
	parts := make([]string, 0, n-1)
	for i := 1; i < n; i++ {
		parts = append(parts, strconv.Itoa(i))
	}
	return strings.Join(parts, ", ") + " ou " + strconv.Itoa(n)
}

// Range renders a validation hint for 1..n: "1 à 3".
func Range(n int) string {
	if n <= 1 {
		return "1"
	}
	return "1 à " + strconv.Itoa(n)
}

func clockOf(t time.Time) string {
	return parse.Clock{Hour: t.Hour(), Minute: t.Minute()}.String()
}
