// Package qrcode generates card codes and renders them as PNG QR images.
package qrcode

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	goqrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length in pixels of rendered card images.
const DefaultSize = 500

// CodeGenerator produces opaque, globally unique card codes.
type CodeGenerator interface {
	NewCode() string
}

// Renderer turns content into an image payload.
type Renderer interface {
	Render(content string) ([]byte, error)
}

// UUIDGenerator issues UUIDv4 codes.
type UUIDGenerator struct{}

func (UUIDGenerator) NewCode() string {
	return uuid.NewString()
}

// PNGRenderer encodes content as a square PNG QR code.
type PNGRenderer struct {
	Size  int
	Level goqrcode.RecoveryLevel
}

// NewPNGRenderer returns a renderer producing 500px images at medium recovery.
func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{Size: DefaultSize, Level: goqrcode.Medium}
}

func (r *PNGRenderer) Render(content string) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr content is empty")
	}
	png, err := goqrcode.Encode(content, r.Level, r.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR png: %w", err)
	}
	return png, nil
}

// PublicURL joins the public card base and a code.
func PublicURL(base, code string) string {
	return strings.TrimRight(base, "/") + "/" + code
}

// ImageKey is the media key of a card's QR image.
func ImageKey(code string) string {
	return "qr_" + code
}

var unsafeKeyChars = regexp.MustCompile(`[^a-z0-9_-]+`)

// LogoKey is the media key of a logo uploaded while provisioning a merchant.
// Anything outside [a-z0-9_-] collapses to a single underscore.
func LogoKey(businessName string) string {
	return "logo_" + unsafeKeyChars.ReplaceAllString(strings.ToLower(businessName), "_")
}
