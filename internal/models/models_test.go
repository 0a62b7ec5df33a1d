package models

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestDecodePayloadKnownTypes(t *testing.T) {
	raw, err := EncodePayload(MatchScorePayload{ApplicationID: "app-1", Score: 87.5})
	require.NoError(t, err)

	decoded, err := DecodePayload(TypeMatchScoreCalculated, raw)
	require.NoError(t, err)

	score, ok := decoded.(MatchScorePayload)
	require.True(t, ok, "expected MatchScorePayload, got %T", decoded)
	require.Equal(t, "app-1", score.ApplicationID)
	require.InDelta(t, 87.5, score.Score, 0.001)
}

func TestDecodePayloadUnknownTypeRoundTrips(t *testing.T) {
	raw := datatypes.JSON(`{"campaign_id":"c-9"}`)

	decoded, err := DecodePayload("marketing_blast", raw)
	require.NoError(t, err)

	rp, ok := decoded.(RawPayload)
	require.True(t, ok)
	require.Equal(t, "marketing_blast", rp.PayloadKind())
	require.Equal(t, "c-9", rp.Fields["campaign_id"])
}

func TestDecodePayloadEmpty(t *testing.T) {
	decoded, err := DecodePayload(TypeSystemUpdate, nil)
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestPreferenceGates(t *testing.T) {
	pref := DefaultNotificationPreference("user-1")
	require.True(t, pref.Enabled(TypeJobPosted))

	pref.JobPosted = false
	require.False(t, pref.Enabled(TypeJobPosted))
	require.True(t, pref.Enabled(TypeMessageReceived))

	// Types outside the catalogue are always enabled.
	require.True(t, pref.Enabled("some_future_type"))
}

func TestPreferenceMethodResolution(t *testing.T) {
	pref := DefaultNotificationPreference("user-1")
	require.Equal(t, MethodWebsocket, pref.MethodFor(TypeJobPosted))

	pref.DefaultMethod = MethodBoth
	pref.MethodOverrides = datatypes.JSONMap{
		TypeInterviewScheduled: "email",
		TypeMessageReceived:    "carrier_pigeon",
	}

	require.Equal(t, MethodEmail, pref.MethodFor(TypeInterviewScheduled))
	// Invalid overrides fall back to the default method.
	require.Equal(t, MethodBoth, pref.MethodFor(TypeMessageReceived))
	require.Equal(t, MethodBoth, pref.MethodFor(TypeJobPosted))
}

func TestPriorityRankOrdering(t *testing.T) {
	require.Greater(t, PriorityUrgent.Rank(), PriorityHigh.Rank())
	require.Greater(t, PriorityHigh.Rank(), PriorityNormal.Rank())
	require.Greater(t, PriorityNormal.Rank(), PriorityLow.Rank())
	// Unknown priorities sort alongside normal.
	require.Equal(t, PriorityNormal.Rank(), Priority("mystery").Rank())
}
