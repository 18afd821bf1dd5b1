package deck

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultAccent is used when no accent colour is configured.
const DefaultAccent = "#1f77b4"

// RGB is an 8-bit colour.
type RGB struct {
	R, G, B uint8
}

// Hex 返回大写的 RRGGBB，不带 '#'。
func (c RGB) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// Palette holds the colours of one theme.
type Palette struct {
	Background RGB
	Text       RGB
	Accent     RGB
	Dark       bool
}

var (
	light = Palette{Background: RGB{255, 255, 255}, Text: RGB{17, 17, 17}}
	dark  = Palette{Background: RGB{17, 17, 17}, Text: RGB{255, 255, 255}, Dark: true}
)

// ParseHex parses "#rgb" or "#rrggbb". Other lengths are truncated or padded
// with '0' to six digits. A non-hex digit is an error.
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) > 6 {
		h = h[:6]
	}
	h += strings.Repeat("0", 6-len(h))
	var out [3]uint8
	for i := range out {
		v, err := strconv.ParseUint(h[2*i:2*i+2], 16, 8)
		if err != nil {
			return RGB{}, fmt.Errorf("invalid accent colour %q", s)
		}
		out[i] = uint8(v)
	}
	return RGB{out[0], out[1], out[2]}, nil
}

// ParsePalette returns the palette for theme. Anything other than "dark" is
// the light theme. An empty accent uses DefaultAccent.
func ParsePalette(theme, accent string) (Palette, error) {
	p := light
	if strings.EqualFold(strings.TrimSpace(theme), "dark") {
		p = dark
	}
	if accent == "" {
		accent = DefaultAccent
	}
	acc, err := ParseHex(accent)
	if err != nil {
		return Palette{}, err
	}
	p.Accent = acc
	return p, nil
}
