package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/DrToblo/swtiles/reader"
	"github.com/google/subcommands"
)

type inspectCmd struct {
	inputPath string
}

func (c *inspectCmd) Name() string     { return "inspect" }
func (c *inspectCmd) Synopsis() string { return "print the header and level table of a SWTILES archive" }
func (c *inspectCmd) Usage() string    { return "swtiles inspect <path>\n" }
func (c *inspectCmd) SetFlags(f *flag.FlagSet) {}

func (c *inspectCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		log.Println("inspect: expected exactly one archive path")
		return subcommands.ExitUsageError
	}

	src, err := reader.OpenFile(f.Arg(0))
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer src.Close()

	r, err := reader.Open(src)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	h := r.Header()
	fmt.Printf("data_type:     %d\n", h.DataType)
	fmt.Printf("image_format:  %s\n", h.ImageFormat.MediaType())
	fmt.Printf("crs_epsg:      %d\n", h.CrsEPSG)
	fmt.Printf("bounds:        E(%.0f -> %.0f) N(%.0f -> %.0f)\n", h.BoundsMinE, h.BoundsMaxE, h.BoundsMinN, h.BoundsMaxN)
	fmt.Printf("tile_size_px:  %d\n", h.TileSizePx)
	fmt.Printf("num_levels:    %d\n", h.NumLevels)

	for _, lv := range r.Levels() {
		fmt.Printf("\nlevel %d:\n", lv.LevelID)
		fmt.Printf("  resolution_m:  %g\n", lv.ResolutionM)
		fmt.Printf("  tile_extent_m: %g\n", lv.TileExtentM)
		fmt.Printf("  origin:        (%g, %g)\n", lv.OriginE, lv.OriginN)
		fmt.Printf("  grid:          %d x %d\n", lv.GridCols, lv.GridRows)
		fmt.Printf("  tile_count:    %d\n", lv.TileCount)
	}

	return subcommands.ExitSuccess
}
