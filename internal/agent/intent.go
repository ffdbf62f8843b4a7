// Package agent implements the intent classifier, the three responders
// (support, order, billing), and the data-lookup tools they may invoke.
package agent

import "strings"

// Intent is the three-way classification driving responder selection.
type Intent string

const (
	IntentSupport Intent = "support"
	IntentOrder   Intent = "order"
	IntentBilling Intent = "billing"
)

// String returns the intent's wire form.
func (i Intent) String() string { return string(i) }

// ParseIntent maps raw classifier output to an Intent.
//
// The rule is deliberately loose: lower-case and trim, then substring
// match with "order" taking precedence over "billing", defaulting to
// support for anything unclear. Ambiguous output silently becomes
// support; that fallback is the intended failure mode, not a bug.
func ParseIntent(text string) Intent {
	t := strings.ToLower(strings.TrimSpace(text))
	if strings.Contains(t, "order") {
		return IntentOrder
	}
	if strings.Contains(t, "billing") {
		return IntentBilling
	}
	return IntentSupport
}
