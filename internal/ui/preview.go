// ABOUTME: Terminal preview of an ARGB8888 frame
// ABOUTME: Packs two pixel rows into one line with upper half blocks
package ui

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderPreview downsamples a width x height ARGB8888 image to cols x
// 2*rows cells and renders it as rows lines of "▀" glyphs.
func RenderPreview(pixels []byte, width, height, cols, rows int) []string {
	if width <= 0 || height <= 0 || cols <= 0 || rows <= 0 || len(pixels) < width*height*4 {
		return nil
	}

	at := func(cx, cy int) string {
		x := cx * width / cols
		y := cy * height / (rows * 2)
		v := binary.LittleEndian.Uint32(pixels[(y*width+x)*4:])
		return fmt.Sprintf("#%06X", v&0xFFFFFF)
	}

	lines := make([]string, 0, rows)
	for r := 0; r < rows; r++ {
		var b strings.Builder
		for c := 0; c < cols; c++ {
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(at(c, r*2))).
				Background(lipgloss.Color(at(c, r*2+1)))
			b.WriteString(style.Render("▀"))
		}
		lines = append(lines, b.String())
	}
	return lines
}
