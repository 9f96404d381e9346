// Package mbtiles adapts an MBTiles SQLite database into the
// tilesource.Source contract: one SWTILES level per MBTiles zoom level.
// MBTiles is an already-decoded, already-opaque tile store, so it satisfies
// the "opaque tile source" contract of spec.md §1 without any of the
// out-of-scope raster-catalog XML parsing.
//
// Callers must import a sql driver registering "sqlite3" before using this
// package, e.g.:
//
//	import _ "github.com/mattn/go-sqlite3"
package mbtiles

import (
	"database/sql"
	"fmt"
	"iter"

	"github.com/DrToblo/swtiles/tilesource"
	"github.com/DrToblo/swtiles/writer"
)

// Source reads tiles out of an MBTiles file, one SWTILES level per zoom
// level present in the database.
type Source struct {
	db      *sql.DB
	lastErr error
}

// Err reports any query or scan error encountered while iterating a
// level's tiles, the way database/sql's own Rows.Err does. A caller
// driving a Source's iterators to completion must check Err afterward:
// a query failure ends the iterator early with no other signal, which
// would otherwise look like a level that simply ran out of tiles.
func (s *Source) Err() error {
	return s.lastErr
}

// Open opens the MBTiles file at filePath read-only.
func Open(filePath string) (*Source, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", filePath))
	if err != nil {
		return nil, err
	}
	return &Source{db: db}, nil
}

func (s *Source) Close() error {
	return s.db.Close()
}

// zoomLevels returns the distinct zoom levels present in the MBTiles
// database's tiles table, in ascending order.
func (s *Source) zoomLevels() ([]int, error) {
	rows, err := s.db.Query("SELECT DISTINCT zoom_level FROM tiles ORDER BY zoom_level")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zooms []int
	for rows.Next() {
		var z int
		if err := rows.Scan(&z); err != nil {
			return nil, err
		}
		zooms = append(zooms, z)
	}
	return zooms, rows.Err()
}

// Levels builds a tilesource.Level per zoom level, using planFor to map a
// zoom level to its writer.LevelPlan (origin, resolution, extent, and grid
// dimensions, which MBTiles itself does not store in projected form).
func (s *Source) Levels(planFor func(zoom int) writer.LevelPlan) ([]tilesource.Level, error) {
	zooms, err := s.zoomLevels()
	if err != nil {
		return nil, err
	}

	levels := make([]tilesource.Level, 0, len(zooms))
	for _, z := range zooms {
		plan := planFor(z)
		levels = append(levels, tilesource.Level{
			Plan:  plan,
			Tiles: s.tilesForZoom(z, plan.GridRows),
		})
	}
	return levels, nil
}

func (s *Source) tilesForZoom(zoom int, gridRows uint32) iter.Seq[tilesource.TileRecord] {
	return func(yield func(tilesource.TileRecord) bool) {
		rows, err := s.db.Query(
			"SELECT tile_column, tile_row, tile_data FROM tiles WHERE zoom_level = ?", zoom)
		if err != nil {
			s.lastErr = err
			return
		}
		defer rows.Close()

		for rows.Next() {
			var col, tmsRow uint32
			var payload []byte
			if err := rows.Scan(&col, &tmsRow, &payload); err != nil {
				s.lastErr = err
				return
			}
			// MBTiles stores rows bottom-up (TMS); SWTILES rows increase
			// southward, matching XYZ, so flip exactly as mb.Reader does.
			row := gridRows - 1 - tmsRow
			if !yield(tilesource.TileRecord{Row: row, Col: col, Payload: payload}) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			s.lastErr = err
		}
	}
}
