package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/DrToblo/swtiles/reader"
	"github.com/google/subcommands"
)

type lsCmd struct {
	level uint
	limit int
}

func (c *lsCmd) Name() string     { return "ls" }
func (c *lsCmd) Synopsis() string { return "scan a level's index and list its non-empty cells" }
func (c *lsCmd) Usage() string    { return "swtiles ls -level N [-limit N] <archive>\n" }
func (c *lsCmd) SetFlags(f *flag.FlagSet) {
	f.UintVar(&c.level, "level", 0, "level_id")
	f.IntVar(&c.limit, "limit", 20, "maximum number of cells to print (0 = unlimited)")
}

func (c *lsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		log.Println("ls: expected exactly one archive path")
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

	lv, err := r.Level(uint8(c.level))
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	var nonEmpty, minRow, maxRow, minCol, maxCol uint32
	first := true
	printed := 0
	for row := uint32(0); row < lv.GridRows; row++ {
		for col := uint32(0); col < lv.GridCols; col++ {
			tile, found, err := r.GetTile(lv.LevelID, row, col)
			if err != nil {
				log.Println(err)
				return subcommands.ExitFailure
			}
			if !found {
				continue
			}
			nonEmpty++
			if first {
				minRow, maxRow, minCol, maxCol = row, row, col, col
				first = false
			} else {
				minRow, maxRow = min(minRow, row), max(maxRow, row)
				minCol, maxCol = min(minCol, col), max(maxCol, col)
			}
			if c.limit == 0 || printed < c.limit {
				fmt.Printf("row=%d col=%d bytes=%d\n", row, col, len(tile.Payload))
				printed++
			}
		}
	}

	fmt.Printf("\n%d/%d cells filled (declared tile_count=%d)\n",
		nonEmpty, lv.GridRows*lv.GridCols, lv.TileCount)
	if nonEmpty > 0 {
		fmt.Printf("row range: %d -> %d, col range: %d -> %d\n", minRow, maxRow, minCol, maxCol)
	}

	return subcommands.ExitSuccess
}
