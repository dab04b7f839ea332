package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/scrypster/lineage/pkg/types"
)

// palette maps a CryptoKitties color name to [background, accent, shadow]
// hex triples, taken from the CK site stylesheet.
var palette = map[string][3]string{
	"mintgreen":        {"#cdf5d4", "#43edac", "#9ad7a5"},
	"sizzurp":          {"#dfdffa", "#7c40ff", "#c1c1ea"},
	"chestnut":         {"#efe1da", "#a56429", "#d4beb3"},
	"strawberry":       {"#ffe0e5", "#ef4b62", "#efbaba"},
	"sapphire":         {"#d3e8ff", "#4c7aef", "#a2c2eb"},
	"forgetmenot":      {"#dcebfc", "#4eb4f9", "#a7caea"},
	"dahlia":           {"#e6eafd", "#b8bdff", "#bec5e7"},
	"coralsunrise":     {"#fde9e4", "#ff9088", "#e7c3bb"},
	"olive":            {"#ecf4e0", "#729100", "#c8d6b4"},
	"pinefresh":        {"#dbf0d0", "#177a25", "#adcf9b"},
	"oasis":            {"#e6faf3", "#ccffef", "#bee1d4"},
	"dioscuri":         {"#e5e7ef", "#484c5b", "#cdd1e0"},
	"palejade":         {"#e7f1ed", "#c3d8cf", "#c0d1ca"},
	"parakeet":         {"#e5f3e2", "#49b749", "#bcd4b8"},
	"cyan":             {"#c5eefa", "#45f0f4", "#83cbe0"},
	"topaz":            {"#d1eeeb", "#0ba09c", "#a8d5d1"},
	"limegreen":        {"#d9f5cb", "#aef72f", "#b4d9a2"},
	"isotope":          {"#effdca", "#e4ff73", "#cde793"},
	"babypuke":         {"#eff1e0", "#bcba5e", "#cfd4b0"},
	"bubblegum":        {"#fadff4", "#ef52d1", "#eebce3"},
	"twilightsparkle":  {"#ede2f5", "#ba8aff", "#dcc7ec"},
	"doridnudibranch":  {"#faeefa", "#fa9fff", "#e1cce1"},
	"pumpkin":          {"#fae1ca", "#ffa039", "#efc8a4"},
	"autumnmoon":       {"#fdf3e0", "#ffe8bb", "#e7d4b4"},
	"bridesmaid":       {"#ffd5e5", "#ffc2df", "#eba3bc"},
	"thundergrey":      {"#eee9e8", "#828282", "#dbccc7"},
	"greymatter":       {"#e5e7ef", "#828282", "#cdd1e0"},
	"downbythebay":     {"#cde5d1", "#4e8b57", "#97bc9c"},
	"eclipse":          {"#e5e7ef", "#484c5b", "#cdd1e0"},
	"gold":             {"#faf4cf", "#fcdf35", "#e3daa1"},
	"shadowgrey":       {"#b1aeb9", "#575553", "#8a8792"},
	"salmon":           {"#fde9e4", "#ef4b62", "#efbaba"},
	"cottoncandy":      {"#ffd5e5", "#ffc2df", "#eba3bc"},
	"cloudwhite":       {"#f9f8f6", "#e7e6e4", "#d5d4d2"},
	"mauveover":        {"#ede2f5", "#ba8aff", "#dcc7ec"},
	"hintomint":        {"#cdf5d4", "#43edac", "#9ad7a5"},
	"bananacream":      {"#fdf3e0", "#ffe8bb", "#e7d4b4"},
}

var defaultColors = [3]string{"#23283b", "#000000", "#1a1d2a"}

// applyColors fills the display colors on a normalized kitty: the API
// background color wins, then the named palette, falling back to the
// default palette for unknown color names so every kitty gets colors.
func applyColors(k *types.Kitty) {
	colors, known := palette[strings.ToLower(k.Color)]
	if !known {
		colors = defaultColors
	}

	if k.KittyColor == "" {
		if k.BackgroundColor != "" {
			k.KittyColor = k.BackgroundColor
		} else {
			k.KittyColor = colors[0]
		}
	}
	if k.ShadowColor == "" {
		k.ShadowColor = colors[2]
		if k.ShadowColor == "" {
			k.ShadowColor = Darken(k.KittyColor, 0.35)
		}
	}
}

// Darken scales a #rrggbb color toward black by amount in [0, 1].
// Malformed input is returned unchanged.
func Darken(hex string, amount float64) string {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return hex
	}
	scale := func(c int) int {
		scaled := int(float64(c)*(1-amount) + 0.5)
		if scaled < 0 {
			return 0
		}
		return scaled
	}
	return fmt.Sprintf("#%02x%02x%02x", scale(r), scale(g), scale(b))
}

func parseHex(hex string) (r, g, b int, ok bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	n, err := strconv.ParseInt(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(n >> 16 & 0xff), int(n >> 8 & 0xff), int(n & 0xff), true
}
