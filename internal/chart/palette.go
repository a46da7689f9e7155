package chart

// Palette is an ordered list of colours indexed modulo its length.
type Palette []string

var DefaultPalette = Palette{
	"#8884d8", "#82ca9d", "#ffc658",
	"#ff8042", "#00C49F", "#0088FE",
}

// At wraps i around the palette. An empty palette falls back to
// DefaultPalette.
func (p Palette) At(i int) string {
	if len(p) == 0 {
		p = DefaultPalette
	}
	if i < 0 {
		i = -i
	}
	return p[i%len(p)]
}
