package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/Jeyveen7/40-avocados/internal/config"
	"github.com/Jeyveen7/40-avocados/internal/errors"
	"github.com/Jeyveen7/40-avocados/internal/model"
)

// MaxDoublings caps the count accepted in doubling mode, which yields 2^n
// tiles.
const MaxDoublings = 20

// Tile returns the markup of one tile showing image and linking to target.
func Tile(image, target string) string {
	return fmt.Sprintf("<div class=\"grid-item\"><a href=\"%s\"><img src=\"%s\"/></a></div>\n",
		html.EscapeString(target), html.EscapeString(image))
}

// Grid returns exactly n tiles.
func Grid(image, target string, n int) string {
	if n < 1 {
		n = 1
	}
	return strings.Repeat(Tile(image, target), n)
}

// DoublingGrid concatenates the tile with itself n times, producing 2^n
// tiles.
func DoublingGrid(image, target string, n int) (string, error) {
	if n > MaxDoublings {
		return "", errors.Configuration("doubling grid mode supports at most %d repetitions, got %d", MaxDoublings, n)
	}
	grid := Tile(image, target)
	for i := 0; i < n; i++ {
		grid += grid
	}
	return grid, nil
}

// GridFor renders a grid in the given mode.
func GridFor(mode, image, target string, n int) (string, error) {
	switch mode {
	case config.GridExact, "":
		if n > model.MaxNumber {
			return "", errors.Configuration("grid supports at most %d tiles, got %d", model.MaxNumber, n)
		}
		return Grid(image, target, n), nil
	case config.GridDoubling:
		return DoublingGrid(image, target, n)
	default:
		return "", errors.Configuration("unknown grid mode %q", mode)
	}
}
