// Package xyzdir adapts a "{z}/{x}/{y}.ext" directory tree of already
// encoded tile files into the tilesource.Source contract, one SWTILES
// level per zoom directory.
package xyzdir

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/DrToblo/swtiles/tilesource"
	"github.com/DrToblo/swtiles/writer"
)

var ErrInvalidPattern = errors.New("xyzdir: invalid file pattern")

// LevelSpec describes one zoom level's directory and the grid geometry it
// maps onto: xyzdir itself knows nothing about ground coordinates, so the
// caller supplies the LevelPlan (origin, resolution, extent) alongside the
// directory to scan.
type LevelSpec struct {
	Plan writer.LevelPlan
	Dir  string // directory containing "{x}/{y}.ext" files for this level
}

// Source walks a set of LevelSpecs and yields their tiles in the lexical
// order filepath.WalkDir visits "{x}/{y}.ext" paths (column directory, then
// row file, names compared as strings, not as numbers), deriving row from
// the Y path component per spec's row-increases-
// southward convention (callers using a north-up Y axis should flip Y
// before constructing the LevelSpec).
type Source struct {
	specs   []LevelSpec
	lastErr error
}

func New(specs []LevelSpec) *Source {
	return &Source{specs: specs}
}

// Err reports any walk or read error encountered while iterating a
// level's tiles. WalkDir errors are otherwise swallowed by the iterator
// (range-over-func has no way to surface a second return value), so a
// caller driving a Source's iterators to completion must check Err
// afterward: a permission error or a truncated read partway through a
// directory would otherwise look like a level that simply ran out of
// tiles.
func (s *Source) Err() error {
	return s.lastErr
}

var tilePathRe = regexp.MustCompile(`^(\d+)[/\\](\d+)\.\w+$`)

func (s *Source) Levels() []tilesource.Level {
	levels := make([]tilesource.Level, 0, len(s.specs))
	for _, spec := range s.specs {
		levels = append(levels, tilesource.Level{
			Plan:  spec.Plan,
			Tiles: s.tilesFromDir(spec.Dir),
		})
	}
	return levels
}

func (s *Source) tilesFromDir(dir string) iter.Seq[tilesource.TileRecord] {
	return func(yield func(tilesource.TileRecord) bool) {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			m := tilePathRe.FindStringSubmatch(rel)
			if m == nil {
				return nil
			}
			col, errCol := strconv.ParseUint(m[1], 10, 32)
			row, errRow := strconv.ParseUint(m[2], 10, 32)
			if errCol != nil || errRow != nil {
				return nil
			}
			payload, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if !yield(tilesource.TileRecord{Row: uint32(row), Col: uint32(col), Payload: payload}) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			s.lastErr = err
		}
	}
}

// ValidatePattern checks that pattern contains the {x}, {y} and {z}
// placeholders, matching xyz naming conventions used elsewhere in the tile
// tooling ecosystem.
func ValidatePattern(pattern string) error {
	for _, p := range []string{"{x}", "{y}", "{z}"} {
		if !regexp.MustCompile(regexp.QuoteMeta(p)).MatchString(pattern) {
			return fmt.Errorf("%w: placeholder %v not found", ErrInvalidPattern, p)
		}
	}
	return nil
}
