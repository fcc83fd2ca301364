package lightning

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// SatsExponent is the power of ten between a satoshi and a bitcoin
	SatsExponent = 8

	// UnknownCountry is shown for nodes without a location
	UnknownCountry = "Unknown"

	// RatePlaceholder is shown in place of USD amounts while the rate is unset
	RatePlaceholder = "N/A"

	// DefaultTimestampLayout mirrors the en-US browser date/time rendering
	DefaultTimestampLayout = "1/2/2006, 3:04:05 PM"
)

var usdPrinter = message.NewPrinter(language.English)

// ToBTC converts sats to bitcoin
func ToBTC(sats int64) decimal.Decimal {
	return decimal.NewFromInt(sats).Shift(-SatsExponent)
}

// FormatBTC renders sats as bitcoin fixed to two decimal places
func FormatBTC(sats int64) string {
	return ToBTC(sats).StringFixed(2)
}

// ConvertUSD returns floor(sats / 10^8 * rate). ok is false when rate is unset.
func ConvertUSD(sats int64, rate decimal.NullDecimal) (usd int64, ok bool) {
	if !rate.Valid {
		return 0, false
	}
	return ToBTC(sats).Mul(rate.Decimal).Floor().IntPart(), true
}

// FormatUSD renders the USD value of sats with digit grouping,
// or RatePlaceholder when the rate is unset.
func FormatUSD(sats int64, rate decimal.NullDecimal) string {
	usd, ok := ConvertUSD(sats, rate)
	if !ok {
		return RatePlaceholder
	}
	return usdPrinter.Sprintf("$%d", usd)
}

// FormatTimestamp renders t in loc using layout
func FormatTimestamp(t time.Time, loc *time.Location, layout string) string {
	if loc == nil {
		loc = time.Local
	}
	if layout == "" {
		layout = DefaultTimestampLayout
	}
	return t.In(loc).Format(layout)
}

// CountryName returns the English country name or UnknownCountry
func CountryName(c *Country) string {
	if c == nil || c.En == "" {
		return UnknownCountry
	}
	return c.En
}
