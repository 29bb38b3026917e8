package stats

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidAge is returned for negative or non-numeric service ages.
var ErrInvalidAge = errors.New("stats: invalid age")

// AgeBin is one of the four service-age categories used to stratify cohorts.
// Bins are closed-left, open-right: [0,10), [10,20), [20,30), [30,inf).
type AgeBin int

const (
	AgeUnder10 AgeBin = iota
	Age10Plus
	Age20Plus
	Age30Plus
)

var ageBinLower = [...]float64{0, 10, 20, 30}

var ageBinLabels = [...]string{"under 10", "10 and over", "20 and over", "30 and over"}

// AgeBins lists every bin in ascending order.
func AgeBins() []AgeBin {
	return []AgeBin{AgeUnder10, Age10Plus, Age20Plus, Age30Plus}
}

func (b AgeBin) String() string {
	if b < AgeUnder10 || b > Age30Plus {
		return fmt.Sprintf("AgeBin(%d)", int(b))
	}
	return ageBinLabels[b]
}

// Bounds returns the bin's [lower, upper) interval in years.
func (b AgeBin) Bounds() (lower, upper float64) {
	lower = ageBinLower[b]
	if b == Age30Plus {
		return lower, math.Inf(1)
	}
	return lower, ageBinLower[b+1]
}

// ClassifyAge maps a service age in years to its bin. An age of exactly 10
// belongs to "10 and over".
func ClassifyAge(age float64) (AgeBin, error) {
	if math.IsNaN(age) || age < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAge, age)
	}
	for b := Age30Plus; b > AgeUnder10; b-- {
		if age >= ageBinLower[b] {
			return b, nil
		}
	}
	return AgeUnder10, nil
}

// ParseAgeBin accepts a bin label ("20 and over") or a range form ("20-30", "30+").
func ParseAgeBin(s string) (AgeBin, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "under 10", "0-10", "<10", "10년 미만":
		return AgeUnder10, nil
	case "10 and over", "10-20", "10년 이상":
		return Age10Plus, nil
	case "20 and over", "20-30", "20년 이상":
		return Age20Plus, nil
	case "30 and over", "30+", ">=30", "30년 이상":
		return Age30Plus, nil
	}
	return 0, fmt.Errorf("unknown age bin %q", s)
}

func (b AgeBin) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *AgeBin) UnmarshalText(text []byte) error {
	parsed, err := ParseAgeBin(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
