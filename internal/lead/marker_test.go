package lead

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
)

func TestExtract_AllFields(t *testing.T) {
	text := `Thanks Jane! Someone will call you shortly.
[LEAD_CAPTURED: name="Jane Doe", phone="+15551234567", email="jane@example.com", service="Deep Cleaning", estimate="$300-$400"]`

	info, ok := Extract(text)
	require.True(t, ok)
	require.Equal(t, domain.LeadInfo{
		Name:     "Jane Doe",
		Phone:    "+15551234567",
		Email:    "jane@example.com",
		Service:  "Deep Cleaning",
		Estimate: "$300-$400",
	}, info)
}

func TestExtract_MissingAndReorderedFields(t *testing.T) {
	info, ok := Extract(`[LEAD_CAPTURED: phone="+15550000000", name="Sam"]`)
	require.True(t, ok)
	require.Equal(t, "Sam", info.Name)
	require.Equal(t, "+15550000000", info.Phone)
	require.Empty(t, info.Email)
	require.Empty(t, info.Service)
	require.Empty(t, info.Estimate)
}

func TestExtract_NoMarker(t *testing.T) {
	_, ok := Extract("How many bedrooms do you have?")
	require.False(t, ok)

	_, ok = Extract("[LEAD_CAPTURED:]")
	require.False(t, ok)
}

func TestExtract_FirstMarkerWins(t *testing.T) {
	info, ok := Extract(`[LEAD_CAPTURED: name="A", phone="1"] and [LEAD_CAPTURED: name="B", phone="2"]`)
	require.True(t, ok)
	require.Equal(t, "A", info.Name)
	require.Equal(t, "1", info.Phone)
}

func TestExtract_DoesNotConfuseSimilarKeys(t *testing.T) {
	info, ok := Extract(`[LEAD_CAPTURED: nickname="JJ", name="Jane"]`)
	require.True(t, ok)
	require.Equal(t, "Jane", info.Name)
}

func TestStrip(t *testing.T) {
	require.Equal(t, "Thanks Jane!", Strip(`Thanks Jane! [LEAD_CAPTURED: name="Jane", phone="+15551234567"]`))
	require.Equal(t, "a  b", Strip(`a [LEAD_CAPTURED: x="1"] b[LEAD_CAPTURED: y="2"]`))
	require.Equal(t, "[LEAD_CAPTURED: unterminated", Strip("[LEAD_CAPTURED: unterminated"))
	require.Equal(t, "plain", Strip("  plain \n"))
}
