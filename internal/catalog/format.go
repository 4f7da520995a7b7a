package catalog

import (
	"math/big"
	"strings"
	"time"
)

const (
	nativeDecimals    = 18
	displayDateLayout = "January 2, 2006"
	displayTimeLayout = "3:04 PM"
)

// FormatFixedPoint renders value scaled down by decimals, trimming trailing
// zeros but keeping at least one fractional digit.
func FormatFixedPoint(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0.0"
	}
	if decimals == 0 {
		return value.String() + ".0"
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	text := new(big.Rat).SetFrac(abs, denom).FloatString(int(decimals))

	text = strings.TrimRight(text, "0")
	if strings.HasSuffix(text, ".") {
		text += "0"
	}
	if sign < 0 {
		return "-" + text
	}
	return text
}

// FormatPrice renders a wei amount as whole native units.
func FormatPrice(wei *big.Int) string {
	return FormatFixedPoint(wei, nativeDecimals)
}

// FormatDate and FormatTime render epoch seconds in loc.
func FormatDate(ts uint64, loc *time.Location) string {
	return toTime(ts, loc).Format(displayDateLayout)
}

func FormatTime(ts uint64, loc *time.Location) string {
	return toTime(ts, loc).Format(displayTimeLayout)
}

func toTime(ts uint64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(int64(ts), 0).In(loc)
}
