// Package tilesource declares the writer's input contract (spec §4.2, §6):
// an ordered sequence of level plans, each yielding non-empty
// (row, col, payload) records. It is the "opaque tile source" collaborator
// named in spec.md §1 — parsing of any upstream raster catalog happens
// before a TileRecord reaches this package.
package tilesource

import (
	"iter"

	"github.com/DrToblo/swtiles/writer"
)

// TileRecord is one non-empty tile yielded by a Level's iterator.
type TileRecord struct {
	Row, Col uint32
	Payload  []byte
}

// Level pairs a writer.LevelPlan with the iterator of its non-empty tiles.
// Tiles iterates in the order the writer should lay them out on disk;
// two runs with the same iteration order produce byte-identical archives.
type Level struct {
	Plan  writer.LevelPlan
	Tiles iter.Seq[TileRecord]
}

// Source is an ordered list of levels to write, in file order.
type Source interface {
	Levels() []Level
}

// StaticSource is a Source backed by a plain in-memory slice.
type StaticSource []Level

func (s StaticSource) Levels() []Level { return s }

// WriteArchive drives w through the full state machine of a Source:
// BeginLevel, WriteTile for every non-empty cell, FinishLevel, in level
// order, then Close. It is the single place the tile-source and writer
// contracts meet.
func WriteArchive(w *writer.Writer, src Source) error {
	for _, level := range src.Levels() {
		if err := w.BeginLevel(level.Plan); err != nil {
			return err
		}
		for rec := range level.Tiles {
			if err := w.WriteTile(rec.Row, rec.Col, rec.Payload); err != nil {
				return err
			}
		}
		if err := w.FinishLevel(); err != nil {
			return err
		}
	}
	return w.Close()
}
