package flow

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ticketHub/internal/chain"
)

const weiDecimals = 18

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// maxUint256Digits is the decimal width of maxUint256.
const maxUint256Digits = 78

var clockLayouts = []string{"15:04", "15:04:05"}

// TotalValue is price * quantity in exact integer arithmetic.
func TotalValue(price *big.Int, quantity uint64) (*big.Int, error) {
	if price == nil || price.Sign() < 0 {
		return nil, fmt.Errorf("%w: price must be non-negative", ErrInvalidAmount)
	}
	if quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidQuantity)
	}
	total := new(big.Int).Mul(price, new(big.Int).SetUint64(quantity))
	if total.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("%w: total exceeds uint256", ErrInvalidQuantity)
	}
	return total, nil
}

// ParseAmount converts a decimal native-unit amount ("0.05") to wei.
// Exponent notation is refused: "1e20000000" would expand to millions of
// digits before any range check could run.
func ParseAmount(text string) (*big.Int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if strings.ContainsAny(text, "eE") {
		return nil, fmt.Errorf("%w: %q uses exponent notation", ErrInvalidAmount, text)
	}
	if integerDigits(text) > maxUint256Digits {
		return nil, fmt.Errorf("%w: %q exceeds uint256", ErrInvalidAmount, text)
	}
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, text)
	}
	wei := amount.Shift(weiDecimals)
	if !wei.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, text, weiDecimals)
	}
	value := wei.BigInt()
	if value.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("%w: %q exceeds uint256", ErrInvalidAmount, text)
	}
	return value, nil
}

// integerDigits counts the significant digits before the decimal point.
func integerDigits(text string) int {
	whole, _, _ := strings.Cut(strings.TrimLeft(text, "+-"), ".")
	return len(strings.TrimLeft(whole, "0"))
}

// ParseCapacity accepts a positive base-10 integer.
func ParseCapacity(text string) (uint64, error) {
	text = strings.TrimSpace(text)
	capacity, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCapacity, text)
	}
	if capacity == 0 {
		return 0, fmt.Errorf("%w: must be positive", ErrInvalidCapacity)
	}
	return capacity, nil
}

// ParseDateTime reads a 2006-01-02 date and a 15:04 clock in loc and returns
// epoch seconds.
func ParseDateTime(date, clock string, loc *time.Location) (uint64, error) {
	if loc == nil {
		loc = time.UTC
	}
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return 0, fmt.Errorf("%w: date and time are required", ErrInvalidDateTime)
	}
	for _, layout := range clockLayouts {
		layout = "2006-01-02 " + layout
		ts, err := time.ParseInLocation(layout, date+" "+clock, loc)
		if err != nil {
			continue
		}
		// ParseInLocation moves wall times skipped by a DST jump; such a
		// clock reading never happens in loc.
		wall, _ := time.Parse(layout, date+" "+clock)
		if ts.Format(layout) != wall.Format(layout) {
			return 0, fmt.Errorf("%w: %s %s does not exist in %s", ErrInvalidDateTime, date, clock, loc)
		}
		if ts.Unix() < 0 {
			return 0, fmt.Errorf("%w: %s %s is before 1970", ErrInvalidDateTime, date, clock)
		}
		return uint64(ts.Unix()), nil
	}
	return 0, fmt.Errorf("%w: %q %q", ErrInvalidDateTime, date, clock)
}

// EventForm is the raw input of an event submission.
type EventForm struct {
	Name        string
	Description string
	Image       string
	Date        string
	Time        string
	Price       string
	Capacity    string
}

// ParseForm validates a submission and converts it to contract arguments.
func ParseForm(form EventForm, loc *time.Location) (chain.CreateArgs, error) {
	name := strings.TrimSpace(form.Name)
	if name == "" {
		return chain.CreateArgs{}, fmt.Errorf("%w: name", ErrMissingField)
	}
	date, err := ParseDateTime(form.Date, form.Time, loc)
	if err != nil {
		return chain.CreateArgs{}, err
	}
	price, err := ParseAmount(form.Price)
	if err != nil {
		return chain.CreateArgs{}, err
	}
	capacity, err := ParseCapacity(form.Capacity)
	if err != nil {
		return chain.CreateArgs{}, err
	}
	return chain.CreateArgs{
		Name:        name,
		Description: strings.TrimSpace(form.Description),
		ImageURI:    strings.TrimSpace(form.Image),
		Date:        date,
		PriceWei:    price,
		Capacity:    capacity,
	}, nil
}
