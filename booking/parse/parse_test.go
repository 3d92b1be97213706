package parse

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateRelativeKeywords(t *testing.T) {
	refs := []time.Time{
		time.Date(2026, time.October, 19, 15, 42, 10, 5, time.UTC),
		time.Date(2026, time.December, 31, 23, 59, 0, 0, time.UTC),
		time.Date(2028, time.February, 28, 0, 0, 0, 0, time.UTC),
	}
	cases := []struct {
		text string
		add  int
	}{
		{"aujourd'hui", 0},
		{"Aujourd’hui", 0},
		{"aujourdhui", 0},
		{"today", 0},
		{"demain", 1},
		{"  DEMAIN ", 1},
		{"tomorrow", 1},
		{"après-demain", 2},
		{"apres demain", 2},
	}
	for _, ref := range refs {
		for _, tc := range cases {
			got, ok := Date(tc.text, ref)
			if !ok {
				t.Fatalf("Date(%q, %s) not parsed", tc.text, ref)
			}
			want := time.Date(ref.Year(), ref.Month(), ref.Day()+tc.add, 0, 0, 0, 0, time.UTC)
			if !got.Equal(want) {
				t.Fatalf("Date(%q, %s) = %s, want %s", tc.text, ref, got, want)
			}
		}
	}
}

func TestDateDayMonthName(t *testing.T) {
	cases := []struct {
		name string
		text string
		ref  time.Time
		want time.Time
	}{
		{"same year before month", "20 février", day(2026, time.January, 10), day(2026, time.February, 20)},
		{"same month keeps year", "20 fevrier", day(2026, time.February, 25), day(2026, time.February, 20)},
		{"rolls to next year", "20 février", day(2026, time.December, 3), day(2027, time.February, 20)},
		{"embedded in sentence", "le 3 août svp", day(2026, time.June, 1), day(2026, time.August, 3)},
		{"unaccented december", "1 decembre", day(2026, time.October, 19), day(2026, time.December, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Date(tc.text, tc.ref)
			if !ok {
				t.Fatalf("Date(%q) not parsed", tc.text)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("Date(%q) = %s, want %s", tc.text, got, tc.want)
			}
		})
	}
}

func TestDateNumeric(t *testing.T) {
	ref := day(2026, time.October, 19)
	cases := []struct {
		text string
		want time.Time
	}{
		{"25/12/2026", day(2026, time.December, 25)},
		{"25-12-27", day(2027, time.December, 25)},
		{"25/10", day(2026, time.October, 25)},
		{"19/10", day(2026, time.October, 19)},
		{"18/10", day(2027, time.October, 18)},
		{"3/2", day(2027, time.February, 3)},
	}
	for _, tc := range cases {
		got, ok := Date(tc.text, ref)
		if !ok {
			t.Fatalf("Date(%q) not parsed", tc.text)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("Date(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestDateRejects(t *testing.T) {
	ref := day(2026, time.October, 19)
	for _, text := range []string{
		"",
		"la semaine prochaine",
		"31 avril",
		"31/04/2027",
		"29/02/2027",
		"12/13",
		"12/10/202",
		"0/10",
	} {
		if got, ok := Date(text, ref); ok {
			t.Fatalf("Date(%q) = %s, want rejection", text, got)
		}
	}
}

func TestDateKeepsReferenceLocation(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	ref := time.Date(2026, time.October, 19, 23, 30, 0, 0, loc)
	got, ok := Date("demain", ref)
	if !ok {
		t.Fatal("expected parse")
	}
	if got.Location() != loc || got.Day() != 20 || got.Hour() != 0 {
		t.Fatalf("unexpected result %s", got)
	}
}

func TestTimeOfDay(t *testing.T) {
	cases := []struct {
		text string
		want Clock
		ok   bool
	}{
		{"14h", Clock{14, 0}, true},
		{"9h30", Clock{9, 30}, true},
		{"9 h 30", Clock{9, 30}, true},
		{"14:30", Clock{14, 30}, true},
		{"0h", Clock{0, 0}, true},
		{"2pm", Clock{14, 0}, true},
		{"2:30PM", Clock{14, 30}, true},
		{"12pm", Clock{12, 0}, true},
		{"12am", Clock{0, 0}, true},
		{"8h du soir", Clock{20, 0}, true},
		{"9h du matin", Clock{9, 0}, true},
		{"25h", Clock{}, false},
		{"9h99", Clock{}, false},
		{"24:00", Clock{}, false},
		{"14pm", Clock{}, false},
		{"midi", Clock{}, false},
		{"", Clock{}, false},
	}
	for _, tc := range cases {
		got, ok := TimeOfDay(tc.text)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("TimeOfDay(%q) = %v,%v want %v,%v", tc.text, got, ok, tc.want, tc.ok)
		}
	}
}

func TestClockString(t *testing.T) {
	if got := (Clock{14, 0}).String(); got != "14h" {
		t.Fatalf("got %q", got)
	}
	if got := (Clock{9, 5}).String(); got != "9h05" {
		t.Fatalf("got %q", got)
	}
}

func TestIsAddress(t *testing.T) {
	cases := map[string]bool{
		"1234 rue Sherbrooke, Montréal": true,
		"  12 av  ":                     false,
		"rue Sherbrooke":                false,
		"123456":                        true,
		"":                              false,
	}
	for text, want := range cases {
		if got := IsAddress(text); got != want {
			t.Fatalf("IsAddress(%q) = %v, want %v", text, got, want)
		}
	}
}
