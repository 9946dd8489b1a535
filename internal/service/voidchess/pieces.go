package voidchess

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	corechess "github.com/park285/void-chess/internal/chess"
)

// Piece outlines on a 45x45 canvas. {F} and {S} are replaced with the fill
// and stroke of the side.
const pieceBase = `<path d="M11 38 L34 38 L34 35 L11 35 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>`

var pieceShapes = map[corechess.PieceType]string{
	corechess.Pawn: `<circle cx="22.5" cy="13" r="5" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<path d="M16 35 C16 26 19.5 21 22.5 19 C25.5 21 29 26 29 35 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
	corechess.Rook: `<path d="M14 35 L31 35 L29.5 17 L15.5 17 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<path d="M12 17 L12 9 L16 9 L16 12 L20 12 L20 9 L25 9 L25 12 L29 12 L29 9 L33 9 L33 17 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
	corechess.Knight: `<path d="M14 35 L32 35 C32 25 30 15 24 10 L22 7 L20 11 C16 13 12 18 10.5 23 L13.5 26 L18 22 C19 25 16 29 14 35 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<circle cx="19.5" cy="15" r="1.3" fill="{S}"/>`,
	corechess.Bishop: `<path d="M15 35 L30 35 C30 28 28 25 26 22.5 C29.5 19 29.5 14 22.5 8.5 C15.5 14 15.5 19 19 22.5 C17 25 15 28 15 35 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<circle cx="22.5" cy="6.5" r="2" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<path d="M20 18 L25 13" fill="none" stroke="{S}" stroke-width="1.5"/>`,
	corechess.Queen: `<path d="M12 35 L33 35 L36 14 L29 25 L27 11 L22.5 24 L18 11 L16 25 L9 14 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<circle cx="9" cy="12" r="2.2" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<circle cx="18" cy="9" r="2.2" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<circle cx="27" cy="9" r="2.2" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<circle cx="36" cy="12" r="2.2" fill="{F}" stroke="{S}" stroke-width="1.5"/>`,
	corechess.King: `<path d="M12 35 L33 35 C35 27 36 20 30 17.5 C26 16 24 19 22.5 22 C21 19 19 16 15 17.5 C9 20 10 27 12 35 Z" fill="{F}" stroke="{S}" stroke-width="1.5"/>` +
		`<path d="M22.5 5 L22.5 16 M18.5 9 L26.5 9" fill="none" stroke="{S}" stroke-width="2"/>`,
}

func pieceSVG(t corechess.PieceType, c corechess.Color) (string, error) {
	shape, ok := pieceShapes[t]
	if !ok {
		return "", fmt.Errorf("%w: %d", corechess.ErrUnknownPiece, t)
	}
	fill, stroke := "#f8f6f0", "#1c1c1c"
	if c == corechess.Black {
		fill, stroke = "#23232b", "#e8e4da"
	}
	body := strings.NewReplacer("{F}", fill, "{S}", stroke).Replace(shape + pieceBase)
	return `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45" width="45" height="45">` + body + `</svg>`, nil
}

type pieceCacheKey struct {
	kind  corechess.PieceType
	color corechess.Color
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func renderPieceImage(p corechess.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{kind: p.Type, color: p.Color, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	src, err := pieceSVG(p.Type, p.Color)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}
