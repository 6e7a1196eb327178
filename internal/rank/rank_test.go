package rank

import (
	"testing"

	"github.com/shopspring/decimal"

	"remitcompare/internal/quote"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func q(provider, received, rate, fee string) quote.Quote {
	return quote.Quote{
		ProviderID:     provider,
		Rate:           dec(rate),
		Fee:            dec(fee),
		ReceivedAmount: dec(received),
		Source:         quote.SourceLive,
	}
}

func order(quotes []quote.Quote) []string {
	out := make([]string, len(quotes))
	for i, x := range quotes {
		out[i] = x.ProviderID
	}
	return out
}

func TestSort_DefaultReceivedAmountDesc(t *testing.T) {
	in := []quote.Quote{
		q("ofx", "1070", "1.07", "5"),
		q("wise", "1076", "1.08", "3"),
		q("remitly", "1064", "1.07", "8"),
	}
	Sort(in, "", "", nil)
	got := order(in)
	want := []string{"wise", "ofx", "remitly"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %v, got %v", want, got)
		}
	}
}

func TestSort_FeeAscending(t *testing.T) {
	in := []quote.Quote{
		q("ofx", "1070", "1.07", "5"),
		q("wise", "1076", "1.08", "3"),
	}
	Sort(in, KeyFee, Asc, nil)
	if in[0].ProviderID != "wise" {
		t.Fatalf("want wise first (lowest fee), got %v", order(in))
	}
}

func TestSort_TieBreakByProviderID(t *testing.T) {
	in := []quote.Quote{
		q("revolut", "1070", "1.07", "5"),
		q("instarem", "1070", "1.07", "5"),
		q("ofx", "1070", "1.07", "5"),
	}
	// ties break by providerId ascending in both directions
	for _, dir := range []Direction{Asc, Desc} {
		Sort(in, KeyReceivedAmount, dir, nil)
		got := order(in)
		want := []string{"instarem", "ofx", "revolut"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("dir=%s: want %v, got %v", dir, want, got)
			}
		}
	}
}

func TestSort_Deterministic(t *testing.T) {
	in := []quote.Quote{
		q("wise", "1076", "1.08", "3"),
		q("ofx", "1070", "1.07", "5"),
		q("remitly", "1064", "1.07", "8"),
	}
	Sort(in, KeyRate, Desc, nil)
	first := order(in)
	Sort(in, KeyRate, Desc, nil)
	second := order(in)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("repeated sort diverged: %v vs %v", first, second)
		}
	}
}

func TestSort_ByRating(t *testing.T) {
	in := []quote.Quote{
		q("ofx", "1070", "1.07", "5"),
		q("wise", "1076", "1.08", "3"),
	}
	ratings := map[string]decimal.Decimal{
		"ofx":  dec("4.2"),
		"wise": dec("4.6"),
	}
	Sort(in, KeyRating, Desc, ratings)
	if in[0].ProviderID != "wise" {
		t.Fatalf("want wise first, got %v", order(in))
	}
	// missing providers rank as zero
	Sort(in, KeyRating, Desc, map[string]decimal.Decimal{"ofx": dec("4.2")})
	if in[0].ProviderID != "ofx" {
		t.Fatalf("want ofx first when wise unrated, got %v", order(in))
	}
}

func TestParseKeyAndDirection(t *testing.T) {
	if k, err := ParseKey(""); err != nil || k != KeyReceivedAmount {
		t.Fatalf("empty key: %v %v", k, err)
	}
	if _, err := ParseKey("speed"); err == nil {
		t.Fatalf("unknown key must error")
	}
	if d, err := ParseDirection(""); err != nil || d != Desc {
		t.Fatalf("empty direction: %v %v", d, err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatalf("unknown direction must error")
	}
}
