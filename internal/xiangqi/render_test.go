package xiangqi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlyph(t *testing.T) {
	assert.Equal(t, '帅', MakePiece(Red, General).Glyph())
	assert.Equal(t, '将', MakePiece(Black, General).Glyph())
	assert.Equal(t, '砲', MakePiece(Black, Cannon).Glyph())
	assert.Equal(t, '兵', MakePiece(Red, Soldier).Glyph())
	assert.Equal(t, '·', Empty.Glyph())
}

func TestGlyphsBoard(t *testing.T) {
	b := NewBoard()
	lines := strings.Split(b.Glyphs(), "\n")
	// 10 行棋盘 + 河界 + 列号
	assert.Len(t, lines, Rows+2)
	assert.Equal(t, "９車馬象士将士象馬車", lines[0])
	assert.Equal(t, "０车马相仕帅仕相马车", lines[Rows])
	for _, line := range lines {
		assert.Equal(t, Cols+1, len([]rune(line)), line)
	}
}
