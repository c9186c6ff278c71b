// Package money implements fixed-point currency amounts with exactly two
// decimal places. Amounts are integer paise under the hood so fee arithmetic
// never accumulates floating-point drift.
package money

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	dErrors "hostelcore/pkg/domain-errors"
)

// Amount is a currency value in hundredths (paise). The zero value is ₹0.00.
type Amount int64

// Parse reads a decimal string like "5000", "5000.5" or "5000.50".
// More than two fractional digits is rejected, never rounded.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeBadRequest, "amount is required")
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && frac == "" {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid amount")
	}
	if len(frac) > 2 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "amount must have at most two decimal places")
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid amount")
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid amount")
	}
	v := w*100 + f
	if neg {
		v = -v
	}
	return Amount(v), nil
}

// MustParse is for constants in tests and seeds; panics on invalid input.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders the canonical two-decimal form, e.g. "5000.00".
func (a Amount) String() string {
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (a Amount) Add(b Amount) Amount { return a + b }

// MulMonths scales a monthly amount by a whole number of months.
func (a Amount) MulMonths(months int) Amount { return a * Amount(months) }

func (a Amount) IsPositive() bool { return a > 0 }
func (a Amount) IsNegative() bool { return a < 0 }

// Value stores the amount as its decimal string so NUMERIC(10,2) columns
// hold exactly what String renders.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan reads NUMERIC columns returned by lib/pq as []byte or string.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = 0
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case int64:
		*a = Amount(v * 100)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into money.Amount", src)
	}
}

// MarshalJSON emits the decimal string form.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts both "5000.00" and bare 5000.00 forms.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
