package schemas

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Quantities and amounts go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

const DateLayout = "2006-01-02"

// Date represents a date in YYYY-MM-DD format
type Date struct {
	time.Time
}

// ToTime returns the underlying time.Time value
func (d Date) ToTime() time.Time {
	return d.Time
}

// UnmarshalJSON implements json.Unmarshaler interface
func (d *Date) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}

	parsed, err := time.Parse(DateLayout, str)
	if err != nil {
		return fmt.Errorf("invalid date format, expected YYYY-MM-DD: %v", err)
	}

	d.Time = parsed
	return nil
}

// MarshalJSON implements json.Marshaler interface
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%s"`, d.Format(DateLayout))), nil
}
