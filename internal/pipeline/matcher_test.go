package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Itecs-company/Alias/internal/registry"
)

func TestMatcherDomainAnchor(t *testing.T) {
	m := NewMatcher(nil, nil)

	r, ok := m.Match("irrelevant text", "LM358", "Texas Instruments", "https://www.ti.com/product/LM358")
	require.True(t, ok)
	assert.Equal(t, "Texas Instruments", r.Manufacturer)
	assert.InDelta(t, domainConfidence, r.Confidence, 1e-9)
	assert.Equal(t, "Texas Instruments", r.AliasUsed)
}

func TestMatcherDomainAnchorSubdomain(t *testing.T) {
	m := NewMatcher(nil, nil)

	r, ok := m.Match("", "STM32F103", "", "https://docs.st.com/resource/stm32f103.pdf")
	require.True(t, ok)
	assert.Equal(t, "STMicroelectronics", r.Manufacturer)
	assert.Empty(t, r.AliasUsed)
}

func TestMatcherKnownMentionMajorityVote(t *testing.T) {
	m := NewMatcher(nil, nil)
	text := "LM358 cross reference\nToshiba alternative available\nSTMicroelectronics LM358\nSTMicroelectronics distributor stock"

	r, ok := m.Match(text, "LM358", "", "https://example-distributor.com/lm358")
	require.True(t, ok)
	assert.Equal(t, "STMicroelectronics", r.Manufacturer)
	assert.InDelta(t, mentionConfidence, r.Confidence, 1e-9)
}

func TestMatcherHintPass(t *testing.T) {
	m := NewMatcher(nil, nil)
	text := "ZX-100 available from Zorand supplier catalog"

	r, ok := m.Match(text, "ZX-100", "Zorand", "https://example-shop.com/zx100")
	require.True(t, ok)
	assert.Equal(t, "Zorand", r.Manufacturer)
	assert.Equal(t, "Zorand", r.AliasUsed)
	assert.InDelta(t, 0.70, r.Confidence, 1e-9)
}

func TestMatcherNoiseLinesIgnored(t *testing.T) {
	m := NewMatcher(nil, nil)
	text := "Please verify you are human to continue\nCAPTCHA required for Onsemi page"

	r, ok := m.Match(text, "NCP1117", "", "https://blocked.example.com/ncp1117")
	if ok {
		assert.NotContains(t, r.DebugLog, "CAPTCHA")
	}
}

func TestMatcherFallbackPhrase(t *testing.T) {
	m := NewMatcher(nil, nil)
	text := "Frobnitz Gadgetry catalog listing"

	r, ok := m.Match(text, "ZZZ-999", "", "https://nowhere.example.com/zzz999")
	require.True(t, ok)
	assert.InDelta(t, fallbackConfidence, r.Confidence, 1e-9)
	assert.NotEmpty(t, r.Manufacturer)
}

func TestMatcherCustomRegistry(t *testing.T) {
	reg := registry.New(map[string]string{"zorand.example": "Zorand"}, []string{"Zorand"})
	m := NewMatcher(reg, nil)

	r, ok := m.Match("", "ZX-100", "", "https://shop.zorand.example/zx100")
	require.True(t, ok)
	assert.Equal(t, "Zorand", r.Manufacturer)
	assert.InDelta(t, domainConfidence, r.Confidence, 1e-9)
}

func TestContextLinesPreferPartNumber(t *testing.T) {
	text := "generic header\nLM358N operational amplifier\nunrelated footer"

	lines := contextLines(text, "LM358N", "")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "LM358N")
}

func TestContextLinesSeparatorStripped(t *testing.T) {
	text := "order code LM 358 N available"

	lines := contextLines(text, "LM358N", "")
	require.Len(t, lines, 1)
}

func TestCandidatePhrasesSkipStopwords(t *testing.T) {
	phrases := candidatePhrases([]string{"datasheet download for Nexperia products"})

	assert.Contains(t, phrases, "Nexperia")
	assert.NotContains(t, phrases, "datasheet")
	assert.NotContains(t, phrases, "for")
}
