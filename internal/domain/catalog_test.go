package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAddon(t *testing.T) {
	a, ok := ParseAddon("")
	require.True(t, ok)
	require.Equal(t, AddonNone, a)

	a, ok = ParseAddon("image-generation")
	require.True(t, ok)
	require.Equal(t, AddonImageGeneration, a)

	a, ok = ParseAddon("speech-synthesis")
	require.True(t, ok)
	require.Equal(t, AddonSpeechSynthesis, a)

	_, ok = ParseAddon("dalle")
	require.False(t, ok)
}

func TestLookupModel(t *testing.T) {
	m, ok := LookupModel("gpt-4-vision-preview")
	require.True(t, ok)
	require.Equal(t, ProviderOpenAI, m.Provider)
	require.True(t, m.Vision)

	m, ok = LookupModel("llama-3.1-70b-versatile")
	require.True(t, ok)
	require.Equal(t, ProviderGroq, m.Provider)
	require.False(t, m.Vision)

	_, ok = LookupModel("gpt-6")
	require.False(t, ok)
}

func TestImageAttachment_DataURI(t *testing.T) {
	a := ImageAttachment{MIME: "image/png", Data: []byte{0x89, 0x50}}
	require.Equal(t, "data:image/png;base64,iVA=", a.DataURI())
}
