package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveTier(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Minute)

	cases := []struct {
		name     string
		sub      *Subscription
		expected string
	}{
		{"无订阅记录", nil, PlanBasic},
		{"active 且周期未结束", &Subscription{Status: SubStatusActive, CurrentPeriodEnd: future}, PlanPro},
		{"trialing 且周期未结束", &Subscription{Status: SubStatusTrialing, CurrentPeriodEnd: future}, PlanPro},
		{"active 但周期已结束", &Subscription{Status: SubStatusActive, CurrentPeriodEnd: past}, PlanBasic},
		{"inactive", &Subscription{Status: SubStatusInactive, CurrentPeriodEnd: future}, PlanBasic},
		{"周期刚好结束", &Subscription{Status: SubStatusActive, CurrentPeriodEnd: now}, PlanBasic},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.sub.EffectiveTier(now))
		})
	}
}
