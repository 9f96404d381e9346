package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DrToblo/swtiles/reader"
	"github.com/google/subcommands"
)

type getCmd struct {
	inputPath  string
	level      uint
	row, col   int
	easting    float64
	northing   float64
	useCoord   bool
	outputPath string
}

func (c *getCmd) Name() string     { return "get" }
func (c *getCmd) Synopsis() string { return "extract one tile's payload from a SWTILES archive" }
func (c *getCmd) Usage() string {
	return "swtiles get -level N (-row R -col C | -e E -n N) -o <path> <archive>\n"
}
func (c *getCmd) SetFlags(f *flag.FlagSet) {
	f.UintVar(&c.level, "level", 0, "level_id")
	f.IntVar(&c.row, "row", -1, "grid row")
	f.IntVar(&c.col, "col", -1, "grid column")
	f.Float64Var(&c.easting, "e", 0, "easting, used with -n instead of -row/-col")
	f.Float64Var(&c.northing, "n", 0, "northing, used with -e instead of -row/-col")
	f.StringVar(&c.outputPath, "o", "", "output file path")
}

func (c *getCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		log.Println("get: expected exactly one archive path")
		return subcommands.ExitUsageError
	}
	c.useCoord = c.row < 0 || c.col < 0

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

	var tile *reader.Tile
	var found bool
	if c.useCoord {
		tile, found, err = r.GetTileByCoord(uint8(c.level), c.easting, c.northing)
	} else {
		tile, found, err = r.GetTile(uint8(c.level), uint32(c.row), uint32(c.col))
	}
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if !found {
		fmt.Println("no tile at that location")
		return subcommands.ExitFailure
	}

	if c.outputPath == "" {
		log.Println("get: -o is required")
		return subcommands.ExitUsageError
	}
	if err := os.WriteFile(c.outputPath, tile.Payload, 0o644); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	fmt.Printf("wrote %d bytes to %s (bounds E(%.0f-%.0f) N(%.0f-%.0f))\n",
		len(tile.Payload), c.outputPath, tile.MinE, tile.MaxE, tile.MinN, tile.MaxN)
	return subcommands.ExitSuccess
}
