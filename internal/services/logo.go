package services

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image/color"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
)

// LogoService renders placeholder tiles for tenants that have not uploaded a
// logo. The tile shows the first character of the tenant name on a background
// derived from the name, so a tenant always gets the same color.
type LogoService interface {
	Generate(tenantName string) ([]byte, error)
}

type logoService struct {
	log      *logger.Logger
	fontFace font.Face
	palette  []color.NRGBA
}

var logoPalette = []color.NRGBA{
	{R: 0xE6, G: 0x39, B: 0x46, A: 0xFF},
	{R: 0xF4, G: 0xA2, B: 0x61, A: 0xFF},
	{R: 0x2A, G: 0x9D, B: 0x8F, A: 0xFF},
	{R: 0xE7, G: 0x6F, B: 0x51, A: 0xFF},
	{R: 0x26, G: 0x46, B: 0x53, A: 0xFF},
	{R: 0x83, G: 0x38, B: 0xEC, A: 0xFF},
	{R: 0x66, G: 0x7E, B: 0xEA, A: 0xFF},
	{R: 0x76, G: 0x4B, B: 0xA2, A: 0xFF},
}

// NewLogoService loads the TTF named by LOGO_FONT. The font must cover the
// characters tenant names use, which in practice means a CJK font.
func NewLogoService(baseLog *logger.Logger) (LogoService, error) {
	serviceLog := baseLog.With("service", "LogoService")

	fontPath := os.Getenv("LOGO_FONT")
	if strings.TrimSpace(fontPath) == "" {
		serviceLog.Warn("LOGO_FONT not set, placeholder logos disabled")
		return &logoService{log: serviceLog, palette: logoPalette}, nil
	}

	face, err := loadFontFace(fontPath, 120)
	if err != nil {
		return nil, fmt.Errorf("load logo font: %w", err)
	}
	return &logoService{log: serviceLog, fontFace: face, palette: logoPalette}, nil
}

func (s *logoService) Generate(tenantName string) ([]byte, error) {
	if s.fontFace == nil {
		return nil, fmt.Errorf("%w: logo generation is not configured", ErrValidation)
	}

	const size = 256
	dc := gg.NewContext(size, size)

	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()

	dc.SetColor(s.pickColor(tenantName))
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()

	initial := firstRune(tenantName)

	dc.SetFontFace(s.fontFace)
	tw, th := dc.MeasureString(initial)
	cx, cy := float64(size)/2, float64(size)/2

	dc.SetColor(color.White)
	dc.DrawString(initial, cx-(tw/2), cy+(th/2)-8)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode logo PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *logoService) pickColor(name string) color.NRGBA {
	h := fnv.New32a()
	h.Write([]byte(name))
	return s.palette[int(h.Sum32())%len(s.palette)]
}

func firstRune(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(r)
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parse TTF: %w", err)
	}
	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	return face, nil
}
