package renewal

import (
	"strings"
	"unicode"

	"contracts-service/internal/domain/catalog"
	"contracts-service/internal/domain/contract"

	"github.com/shopspring/decimal"
)

// provider yields a value when its source has one.
type provider[T any] func() (T, bool)

// firstOf evaluates providers in order and returns the first value found, or fallback.
func firstOf[T any](fallback T, providers ...provider[T]) T {
	for _, p := range providers {
		if v, ok := p(); ok {
			return v
		}
	}
	return fallback
}

func positiveInt(v *int) provider[int] {
	return func() (int, bool) {
		if v == nil || *v <= 0 {
			return 0, false
		}
		return *v, true
	}
}

func positiveDecimal(v *decimal.Decimal) provider[decimal.Decimal] {
	return func() (decimal.Decimal, bool) {
		if v == nil || !v.IsPositive() {
			return decimal.Zero, false
		}
		return *v, true
	}
}

func offerDuration(offer *catalog.Offer) provider[int] {
	return func() (int, bool) {
		if offer == nil {
			return 0, false
		}
		return positiveInt(offer.DurationMonths)()
	}
}

func offerPrice(offer *catalog.Offer) provider[decimal.Decimal] {
	return func() (decimal.Decimal, bool) {
		if offer == nil {
			return decimal.Zero, false
		}
		d, ok := parsePrice(offer.Price)
		if !ok || !d.IsPositive() {
			return decimal.Zero, false
		}
		return d, true
	}
}

func method(m *contract.PaymentMethod) provider[contract.PaymentMethod] {
	return func() (contract.PaymentMethod, bool) {
		if m == nil || *m == "" {
			return "", false
		}
		return *m, true
	}
}

// findOffer matches on the offer reference, ignoring case.
func findOffer(offers []catalog.Offer, ref *string) *catalog.Offer {
	if ref == nil || strings.TrimSpace(*ref) == "" {
		return nil
	}
	want := strings.TrimSpace(*ref)
	for i := range offers {
		if strings.EqualFold(offers[i].OfferRef, want) {
			return &offers[i]
		}
	}
	return nil
}

// parsePrice reads prices as typed by the sales team: "297", "1.200,00 €", "$1,200.50".
// When both separators appear the last one is decimal. A lone separator repeated, or
// followed by exactly three digits, groups thousands.
func parsePrice(raw string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return decimal.Zero, false
	}

	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		decSep, groupSep := ".", ","
		if lastComma > lastDot {
			decSep, groupSep = ",", "."
		}
		s = strings.ReplaceAll(s, groupSep, "")
		s = strings.Replace(s, decSep, ".", 1)
	case lastDot >= 0 || lastComma >= 0:
		sep, last := ".", lastDot
		if lastComma >= 0 {
			sep, last = ",", lastComma
		}
		if strings.Count(s, sep) > 1 || len(s)-last-1 == 3 {
			s = strings.ReplaceAll(s, sep, "")
		} else {
			s = strings.Replace(s, sep, ".", 1)
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
