package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		tag  string
		want Variant
	}{
		{"carousel", Carousel},
		{"Accordion", Accordion},
		{" list ", List},
		{"students", List},
		{"tenders", Tenders},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ParseVariant(tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVariant_Unknown(t *testing.T) {
	_, err := ParseVariant("gallery")
	assert.Error(t, err)
}

func TestVariant_TextRoundTrip(t *testing.T) {
	for _, v := range Variants {
		text, err := v.MarshalText()
		require.NoError(t, err)

		var got Variant
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, v, got)
	}

	_, err := Variant(0).MarshalText()
	assert.Error(t, err)
}
