package services

import (
	"testing"

	"github.com/maisonvera/concierge/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentClassifier_ExplicitIntentWins(t *testing.T) {
	c := NewIntentClassifier(DefaultClassifierRules())

	// Text alone would classify as return_exchange; the UI chip wins.
	got := c.Classify(ClassifyInput{
		Text:           "I want to return this ring",
		ExplicitIntent: string(entities.IntentCapsuleReserve),
	})

	assert.Equal(t, entities.IntentCapsuleReserve, got.Intent)
}

func TestIntentClassifier_UnknownExplicitIntent(t *testing.T) {
	c := NewIntentClassifier(DefaultClassifierRules())

	got := c.Classify(ClassifyInput{ExplicitIntent: "teleport"})

	assert.Equal(t, entities.IntentUnknown, got.Intent)
}

func TestIntentClassifier_CommandShortcuts(t *testing.T) {
	c := NewIntentClassifier(DefaultClassifierRules())

	track := c.Classify(ClassifyInput{Text: "/track mv-10042"})
	assert.Equal(t, entities.IntentTrackOrder, track.Intent)
	assert.True(t, track.FromShortcut)
	assert.Equal(t, "MV-10042", track.OrderID)

	gift := c.Classify(ClassifyInput{Text: "/gift 250"})
	assert.Equal(t, entities.IntentGiftCard, gift.Intent)
	require.NotNil(t, gift.GiftAmount)
	assert.Equal(t, 250.0, *gift.GiftAmount)

	size := c.Classify(ClassifyInput{Text: "/size 7"})
	assert.Equal(t, entities.IntentSizeGuide, size.Intent)
	assert.Equal(t, "7", size.RingSize)
}

func TestIntentClassifier_RulePrecedence(t *testing.T) {
	c := NewIntentClassifier(DefaultClassifierRules())

	tests := []struct {
		name string
		text string
		want entities.Intent
	}{
		// Matches both return and track rules; return is earlier.
		{"return beats track", "I need to return my shipped order", entities.IntentReturnExchange},
		// Matches both track and find_product rules; track is earlier.
		{"track beats find", "track my diamond ring order status", entities.IntentTrackOrder},
		// Matches both capsule and find_product rules; capsule is earlier.
		{"capsule beats find", "reserve the gold ring for me", entities.IntentCapsuleReserve},
		// Matches both gift_card and find_product rules; gift_card is earlier.
		{"gift card beats find", "can I buy a gift card", entities.IntentGiftCard},
		// Matches both size_guide and find_product rules; size_guide is earlier.
		{"size beats find", "what size ring should I get", entities.IntentSizeGuide},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(ClassifyInput{Text: tt.text})
			assert.Equal(t, tt.want, got.Intent)
		})
	}
}

func TestIntentClassifier_Deterministic(t *testing.T) {
	c := NewIntentClassifier(DefaultClassifierRules())
	input := ClassifyInput{Text: "show me emerald pendants under 900"}

	first := c.Classify(input)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, c.Classify(input))
	}
}

func TestIntentClassifier_NoMatchReturnsUnknown(t *testing.T) {
	c := NewIntentClassifier(DefaultClassifierRules())

	assert.Equal(t, entities.IntentUnknown, c.Classify(ClassifyInput{Text: "purple unicorn rainbow"}).Intent)
	assert.Equal(t, entities.IntentUnknown, c.Classify(ClassifyInput{Text: "   "}).Intent)
	assert.Equal(t, entities.IntentUnknown, c.Classify(ClassifyInput{}).Intent)
}
