package domain

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"
)

var orderNumberPattern = regexp.MustCompile(`^\d{14}$`)

// NewOrderNumber builds a 14-digit order number: 8-digit date plus a
// 6-digit random sequence. Uniqueness is enforced by the orders table;
// on a duplicate the caller regenerates and retries.
func NewOrderNumber(t time.Time) string {
	return fmt.Sprintf("%s%06d", t.Format("20060102"), rand.IntN(1_000_000))
}

func ValidateOrderNumber(number string) error {
	if !orderNumberPattern.MatchString(number) {
		return fmt.Errorf("order number[%s] is not 14 digits", number)
	}

	return nil
}
