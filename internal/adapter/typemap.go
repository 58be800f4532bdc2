package adapter

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/recondesk-dev/recondesk/internal/model"
)

// typeRule maps a set of keywords to an event kind. Rules are evaluated in
// slice order with first-match-wins semantics, so more specific keywords
// (refund failure) must precede the ones they contain (refund).
type typeRule struct {
	keywords []string
	kind     model.EventType
}

// mapType resolves a raw type/category string against an ordered rule table,
// falling back to the amount's sign when nothing matches.
func mapType(rules []typeRule, raw string, amount decimal.Decimal) model.EventType {
	t := strings.ToLower(strings.TrimSpace(raw))
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(t, kw) {
				return rule.kind
			}
		}
	}
	if amount.Sign() >= 0 {
		return model.EventCharge
	}
	return model.EventRefund
}
