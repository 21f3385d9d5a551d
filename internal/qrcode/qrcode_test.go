package qrcode

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDGeneratorIssuesDistinctCodes(t *testing.T) {
	gen := UUIDGenerator{}
	a, b := gen.NewCode(), gen.NewCode()

	assert.NotEqual(t, a, b)
	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestPNGRendererProducesSquareImage(t *testing.T) {
	data, err := NewPNGRenderer().Render("https://cards.example.sn/card/abc")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
	assert.Equal(t, DefaultSize, img.Bounds().Dy())
}

func TestPNGRendererRejectsEmptyContent(t *testing.T) {
	_, err := NewPNGRenderer().Render("")
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"public url", PublicURL("https://cards.sn/card", "c1"), "https://cards.sn/card/c1"},
		{"public url trailing slash", PublicURL("https://cards.sn/card/", "c1"), "https://cards.sn/card/c1"},
		{"image key", ImageKey("c1"), "qr_c1"},
		{"logo key", LogoKey("Chez  Fatou\tDakar"), "logo_chez_fatou_dakar"},
		{"logo key simple", LogoKey("Boutique"), "logo_boutique"},
		{"logo key path segments", LogoKey("a/../../../../escaped"), "logo_a_escaped"},
		{"logo key backslash", LogoKey(`x\..\qr_1`), "logo_x_qr_1"},
		{"logo key punctuation", LogoKey("Chez Fatou & Fils!"), "logo_chez_fatou_fils_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
