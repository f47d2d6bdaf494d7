package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKOTTransitionsForwardOnly(t *testing.T) {
	tests := []struct {
		from KOTStatus
		to   KOTStatus
		ok   bool
	}{
		{KOTNotSent, KOTSent, true},
		{KOTSent, KOTAcknowledged, true},
		{KOTAcknowledged, KOTPreparing, true},
		{KOTPreparing, KOTReady, true},

		// no skipping
		{KOTSent, KOTPreparing, false},
		{KOTSent, KOTReady, false},
		{KOTAcknowledged, KOTReady, false},

		// no regression
		{KOTAcknowledged, KOTSent, false},
		{KOTReady, KOTPreparing, false},
		{KOTReady, KOTSent, false},

		{KOTReady, KOTReady, false},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTicketPriorityDerivation(t *testing.T) {
	policy := DefaultPriorityPolicy()
	now := time.Now().UTC()

	tests := []struct {
		waited time.Duration
		want   KOTPriority
	}{
		{time.Minute, PriorityLow},
		{9 * time.Minute, PriorityLow},
		{10 * time.Minute, PriorityMedium},
		{19 * time.Minute, PriorityMedium},
		{20 * time.Minute, PriorityHigh},
		{29 * time.Minute, PriorityHigh},
		{30 * time.Minute, PriorityUrgent},
		{2 * time.Hour, PriorityUrgent},
	}
	for _, tt := range tests {
		ticket := &KitchenTicket{Status: KOTSent, SentAt: now.Add(-tt.waited)}
		assert.Equalf(t, tt.want, ticket.Priority(now, policy), "waited %s", tt.waited)
	}
}

func TestTicketPriorityUsesConfiguredThresholds(t *testing.T) {
	policy := PriorityPolicy{Medium: 2 * time.Minute, High: 4 * time.Minute, Urgent: 6 * time.Minute}
	now := time.Now().UTC()
	ticket := &KitchenTicket{Status: KOTSent, SentAt: now.Add(-5 * time.Minute)}
	assert.Equal(t, PriorityHigh, ticket.Priority(now, policy))
}

func TestReadyTicketPriorityStaysLow(t *testing.T) {
	now := time.Now().UTC()
	ticket := &KitchenTicket{Status: KOTReady, SentAt: now.Add(-time.Hour)}
	assert.Equal(t, PriorityLow, ticket.Priority(now, DefaultPriorityPolicy()))
}

func TestAllReady(t *testing.T) {
	assert.False(t, AllReady(nil))
	assert.False(t, AllReady([]KitchenTicket{}))
	assert.False(t, AllReady([]KitchenTicket{{Status: KOTReady}, {Status: KOTPreparing}}))
	assert.True(t, AllReady([]KitchenTicket{{Status: KOTReady}}))
	assert.True(t, AllReady([]KitchenTicket{{Status: KOTReady}, {Status: KOTReady}}))
}
