// Package money converts between decimal price strings and exact
// integer fixed-point amounts. All portfolio arithmetic happens on
// these integers; decimal parsing happens once, at the boundary.
package money

import (
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Amount is a currency value in minor units (hundredths), e.g. cents.
type Amount int64

// Ratio is a percentage value scaled by 10000, preserving two decimal
// digits of percentage precision ("12.84%" -> 128400).
type Ratio int64

const (
	// AmountScale is the number of fractional digits carried by Amount.
	AmountScale = 2
	// RatioScale is the number of fractional digits carried by Ratio.
	RatioScale = 4
)

// Sentinel literals the feed uses for missing analytics fields.
var optionalSentinels = map[string]bool{
	"":     true,
	"-":    true,
	"None": true,
}

// ParseRequired converts a decimal string into an Amount, rounding
// half away from zero. It returns an error for empty or non-numeric
// input.
func ParseRequired(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty money value")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid money value %q: %w", s, err)
	}
	// decimal.Round rounds half away from zero.
	return Amount(d.Shift(AmountScale).Round(0).IntPart()), nil
}

// ParseOptionalOrZero converts a decimal string into an Amount,
// mapping sentinel literals ("None", "-", "") and unparsable input to
// zero. Use it for analytics fields the feed may omit.
func ParseOptionalOrZero(s string) Amount {
	s = strings.TrimSpace(s)
	if optionalSentinels[s] {
		return 0
	}
	a, err := ParseRequired(s)
	if err != nil {
		return 0
	}
	return a
}

// ParseRatioRequired converts a percentage string such as "12.84" or
// "12.84%" into a Ratio.
func ParseRatioRequired(s string) (Ratio, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return 0, fmt.Errorf("empty ratio value")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid ratio value %q: %w", s, err)
	}
	return Ratio(d.Shift(RatioScale).Round(0).IntPart()), nil
}

// ParseRatioOptionalOrZero is ParseRatioRequired with sentinel and
// unparsable input mapped to zero.
func ParseRatioOptionalOrZero(s string) Ratio {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if optionalSentinels[s] {
		return 0
	}
	r, err := ParseRatioRequired(s)
	if err != nil {
		return 0
	}
	return r
}

// FormatDisplay renders an Amount with exactly two decimal digits,
// e.g. 14834 -> "148.34".
func FormatDisplay(a Amount) string {
	return decimal.New(int64(a), -AmountScale).StringFixed(AmountScale)
}

// FormatRatio renders a Ratio with two decimal digits and a percent
// sign, e.g. 128400 -> "12.84%".
func FormatRatio(r Ratio) string {
	return decimal.New(int64(r), -RatioScale).StringFixed(2) + "%"
}

// FormatUSD renders an Amount as a grouped dollar string,
// e.g. 237344 -> "$2,373.44".
func FormatUSD(a Amount) string {
	return gomoney.New(int64(a), gomoney.USD).Display()
}

// MulShares multiplies a per-share Amount by a share count. Integer
// arithmetic only, no precision loss.
func (a Amount) MulShares(shares int64) Amount {
	return a * Amount(shares)
}
