package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateFontDescriptor(t *testing.T) {
	font := &TTFFont{
		FilePath:       "/fonts/OpenSans-Regular.ttf",
		PostScriptName: "OpenSans-Regular",
		UnitsPerEm:     2048,
		FontBBox:       [4]int16{-550, -271, 1204, 1048},
		Ascender:       1069,
		Descender:      -293,
		CapHeight:      714,
		XHeight:        519,
		StemV:          80,
		Flags:          32,
	}

	fd := GenerateFontDescriptor(font)

	assert.Equal(t, &FontDescriptor{
		FontName:  "OpenSans-Regular",
		Flags:     32,
		FontBBox:  [4]int{-268, -132, 587, 511},
		Ascent:    521,
		Descent:   -143,
		CapHeight: 348,
		XHeight:   253,
		StemV:     80,
	}, fd)

	assert.Nil(t, GenerateFontDescriptor(nil))
}

func TestFontName(t *testing.T) {
	tests := []struct {
		font TTFFont
		want string
	}{
		{TTFFont{PostScriptName: "Named", FilePath: "/x/Other.ttf"}, "Named"},
		{TTFFont{FilePath: "/fonts/MyFont-Bold.ttf"}, "MyFont-Bold"},
		{TTFFont{FilePath: "/fonts/My Font.ttf"}, "MyFont"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FontName(&tt.font))
	}
}

func TestToPDFUnits(t *testing.T) {
	assert.Equal(t, 500, (&TTFFont{UnitsPerEm: 2048}).ToPDFUnits(1024))
	assert.Equal(t, 250, (&TTFFont{UnitsPerEm: 1000}).ToPDFUnits(250))
	assert.Equal(t, 0, (&TTFFont{}).ToPDFUnits(250))
}
