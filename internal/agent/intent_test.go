package agent

import "testing"

func TestParseIntent(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"order", IntentOrder},
		{"Order", IntentOrder},
		{"  ORDER \n", IntentOrder},
		{"I'll route this to order handling", IntentOrder},
		{"billing", IntentBilling},
		{"I'll check your billing", IntentBilling},
		{"support", IntentSupport},
		{"unknown", IntentSupport},
		{"Hello", IntentSupport},
		{"", IntentSupport},
		// "order" wins even when "billing" also appears.
		{"billing order", IntentOrder},
	}
	for _, tt := range tests {
		if got := ParseIntent(tt.text); got != tt.want {
			t.Errorf("ParseIntent(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
