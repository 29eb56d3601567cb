package dates

import (
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func genDate(t *rapid.T, label string) string {
	y := rapid.IntRange(1970, 2099).Draw(t, label+"Year")
	m := rapid.IntRange(1, 12).Draw(t, label+"Month")
	last := time.Date(y, time.Month(m)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	d := rapid.IntRange(1, last).Draw(t, label+"Day")
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

// Parsing then re-serialising a valid date is the identity.
func TestParseFormatRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := genDate(t, "d")
		parsed, err := ParseLocal(s)
		if err != nil {
			t.Fatalf("ParseLocal(%s): %v", s, err)
		}
		if got := Format(parsed); got != s {
			t.Fatalf("round trip: got %s, want %s", got, s)
		}
	})
}

// AddDays and DayDiff are inverses.
func TestAddDaysDayDiffInverse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := genDate(t, "d")
		n := rapid.IntRange(-4000, 4000).Draw(t, "n")

		shifted, err := AddDays(s, n)
		if err != nil {
			t.Fatal(err)
		}
		a, _ := ParseLocal(s)
		b, _ := ParseLocal(shifted)
		if got := DayDiff(a, b); got != n {
			t.Fatalf("DayDiff(%s, %s) = %d, want %d", s, shifted, got, n)
		}
	})
}
