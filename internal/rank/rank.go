package rank

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"remitcompare/internal/quote"
)

// Key selects the quote field the list is ordered by.
type Key string

const (
	KeyReceivedAmount Key = "received_amount"
	KeyRate           Key = "rate"
	KeyFee            Key = "fee"
	KeyRating         Key = "rating"
)

// Direction is the sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseKey accepts the wire spelling of a sort key; empty means the
// default received-amount ordering.
func ParseKey(s string) (Key, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "received_amount", "received":
		return KeyReceivedAmount, nil
	case "rate":
		return KeyRate, nil
	case "fee":
		return KeyFee, nil
	case "rating":
		return KeyRating, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

// ParseDirection accepts asc/desc; empty means descending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc":
		return Desc, nil
	case "asc":
		return Asc, nil
	default:
		return "", fmt.Errorf("unknown sort direction %q", s)
	}
}

// Sort orders quotes in place by key and direction. The sort is stable and
// ties always break by ProviderID ascending, so repeated calls with the
// same input produce the same order. ratings is only consulted for
// KeyRating; missing providers rank as zero.
func Sort(quotes []quote.Quote, key Key, dir Direction, ratings map[string]decimal.Decimal) {
	if key == "" {
		key = KeyReceivedAmount
	}
	if dir == "" {
		dir = Desc
	}
	field := func(q quote.Quote) decimal.Decimal {
		switch key {
		case KeyRate:
			return q.Rate
		case KeyFee:
			return q.Fee
		case KeyRating:
			return ratings[q.ProviderID]
		default:
			return q.ReceivedAmount
		}
	}
	sort.SliceStable(quotes, func(i, j int) bool {
		c := field(quotes[i]).Cmp(field(quotes[j]))
		if c != 0 {
			if dir == Asc {
				return c < 0
			}
			return c > 0
		}
		return quotes[i].ProviderID < quotes[j].ProviderID
	})
}
