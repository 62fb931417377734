package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAlertConditionSatisfied(t *testing.T) {
	tests := []struct {
		name          string
		condition     AlertCondition
		target        string
		price         string
		changePercent string
		want          bool
	}{
		{"above price met", ConditionAbovePrice, "150.00", "151.00", "0", true},
		{"above price exact", ConditionAbovePrice, "150.00", "150.00", "0", true},
		{"above price not met", ConditionAbovePrice, "150.00", "149.99", "0", false},
		{"below price met", ConditionBelowPrice, "100.00", "99.50", "0", true},
		{"below price exact", ConditionBelowPrice, "100.00", "100.00", "0", true},
		{"below price not met", ConditionBelowPrice, "100.00", "100.01", "0", false},
		{"percent gain met", ConditionPercentGain, "5", "0", "5.2", true},
		{"percent gain exact", ConditionPercentGain, "5", "0", "5", true},
		{"percent gain not met", ConditionPercentGain, "5", "0", "4.9", false},
		{"percent loss met", ConditionPercentLoss, "5", "0", "-6.0", true},
		{"percent loss exact", ConditionPercentLoss, "5", "0", "-5", true},
		{"percent loss not met", ConditionPercentLoss, "5", "0", "-4.9", false},
		{"percent loss ignores gains", ConditionPercentLoss, "5", "0", "6.0", false},
		{"unknown condition", AlertCondition("bogus"), "1", "100", "100", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.condition.Satisfied(dec(tt.target), dec(tt.price), dec(tt.changePercent))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlertConditionValid(t *testing.T) {
	for _, c := range []AlertCondition{ConditionAbovePrice, ConditionBelowPrice, ConditionPercentGain, ConditionPercentLoss} {
		assert.True(t, c.Valid(), string(c))
	}
	assert.False(t, AlertCondition("price_above").Valid())
	assert.False(t, AlertCondition("").Valid())
}

func TestDefaultPreference(t *testing.T) {
	pref := DefaultPreference("user-1", CategoryPriceAlert)
	assert.True(t, pref.InAppEnabled)
	assert.True(t, pref.EmailEnabled)
	assert.False(t, pref.PushEnabled)
	assert.True(t, pref.Enabled(MethodInApp))
	assert.True(t, pref.Enabled(MethodEmail))
	assert.False(t, pref.Enabled(MethodPush))
	assert.False(t, pref.Enabled(NotificationMethod("carrier_pigeon")))
}
