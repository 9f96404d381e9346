package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/DrToblo/swtiles/format"
	"github.com/DrToblo/swtiles/sink"
	"github.com/DrToblo/swtiles/tilesource"
	"github.com/DrToblo/swtiles/tilesource/mbtiles"
	"github.com/DrToblo/swtiles/tilesource/xyzdir"
	"github.com/DrToblo/swtiles/writer"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

// webMercatorHalfExtent is the half-width, in meters, of the standard
// EPSG:3857 world square; level z's grid is 2^z x 2^z and its tile extent is
// 2*webMercatorHalfExtent / 2^z, the convention shared by XYZ and MBTiles
// slippy-map pyramids.
const webMercatorHalfExtent = 20037508.342789244

func webMercatorPlan(levelID uint8, zoom int) writer.LevelPlan {
	grid := uint32(1) << uint(zoom)
	extent := float32(2 * webMercatorHalfExtent / float64(grid))
	return writer.LevelPlan{
		LevelID:     levelID,
		ResolutionM: extent / 256,
		TileExtentM: extent,
		OriginE:     -webMercatorHalfExtent,
		OriginN:     webMercatorHalfExtent,
		GridCols:    grid,
		GridRows:    grid,
	}
}

type buildCmd struct {
	inputFormat string
	inputPath   string
	outputPath  string
	minZoom     int
	maxZoom     int
	crsEPSG     uint
	dataType    string
	imageFormat string
	tileSizePx  uint
}

func (c *buildCmd) Name() string     { return "build" }
func (c *buildCmd) Synopsis() string { return "assemble a SWTILES archive from an MBTiles or XYZ tile source" }
func (c *buildCmd) Usage() string {
	return "swtiles build -if mbtiles|xyz -i <path> -o <path> [-min-zoom N -max-zoom N]\n"
}
func (c *buildCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputFormat, "if", "", "input format: mbtiles or xyz")
	f.StringVar(&c.inputPath, "i", "", "input path (MBTiles file, or XYZ root directory)")
	f.StringVar(&c.outputPath, "o", "", "output SWTILES file path")
	f.IntVar(&c.minZoom, "min-zoom", 0, "minimum zoom level (xyz only)")
	f.IntVar(&c.maxZoom, "max-zoom", 0, "maximum zoom level (xyz only)")
	f.UintVar(&c.crsEPSG, "crs", 3857, "EPSG code of the source grid")
	f.StringVar(&c.dataType, "data-type", "raster", "raster, terrain, or other")
	f.StringVar(&c.imageFormat, "image-format", "png", "webp, png, jpeg, or avif")
	f.UintVar(&c.tileSizePx, "tile-size", 256, "tile size in pixels")
}

func parseDataType(s string) (format.DataType, error) {
	switch s {
	case "raster":
		return format.DataTypeRaster, nil
	case "terrain":
		return format.DataTypeTerrain, nil
	case "other":
		return format.DataTypeOther, nil
	}
	return 0, fmt.Errorf("unknown data type %q", s)
}

func parseImageFormat(s string) (format.ImageFormat, error) {
	switch s {
	case "webp":
		return format.ImageFormatWebP, nil
	case "png":
		return format.ImageFormatPNG, nil
	case "jpeg", "jpg":
		return format.ImageFormatJPEG, nil
	case "avif":
		return format.ImageFormatAVIF, nil
	}
	return 0, fmt.Errorf("unknown image format %q", s)
}

// tileSourceErr is the errSource check used by Execute, consulted after
// iterating each level's tiles: a query or filesystem-walk error inside a
// Source's iter.Seq has no other way to surface (range-over-func carries
// no error return), so this is where a partial level is told apart from
// one that simply had no more tiles.
type errSource interface {
	Err() error
}

func tileSourceErr(src tilesource.Source) error {
	if es, ok := src.(errSource); ok {
		return es.Err()
	}
	return nil
}

func (c *buildCmd) buildSource() (tilesource.Source, func() error, error) {
	switch c.inputFormat {
	case "mbtiles":
		src, err := mbtiles.Open(c.inputPath)
		if err != nil {
			return nil, nil, err
		}
		levels, err := src.Levels(func(zoom int) writer.LevelPlan {
			return webMercatorPlan(uint8(zoom), zoom)
		})
		if err != nil {
			src.Close()
			return nil, nil, err
		}
		return mbtilesSource{Source: src, levels: levels}, src.Close, nil

	case "xyz":
		levelCount := 0
		if c.maxZoom >= c.minZoom {
			levelCount = c.maxZoom - c.minZoom + 1
		}
		specs := make([]xyzdir.LevelSpec, 0, levelCount)
		for z := c.minZoom; z <= c.maxZoom; z++ {
			specs = append(specs, xyzdir.LevelSpec{
				Plan: webMercatorPlan(uint8(z), z),
				Dir:  filepath.Join(c.inputPath, fmt.Sprint(z)),
			})
		}
		return xyzdir.New(specs), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown input format %q (want mbtiles or xyz)", c.inputFormat)
	}
}

// mbtilesSource adapts an already-resolved level list back onto its
// *mbtiles.Source, so Execute's tileSourceErr check can still reach
// Source.Err after the levels have been flattened into a plain slice.
type mbtilesSource struct {
	*mbtiles.Source
	levels []tilesource.Level
}

func (s mbtilesSource) Levels() []tilesource.Level { return s.levels }

func (c *buildCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	dataType, err := parseDataType(c.dataType)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	imageFormat, err := parseImageFormat(c.imageFormat)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	src, closeSource, err := c.buildSource()
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer closeSource()

	levels := src.Levels()

	s, err := sink.NewFileSink(c.outputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	w, err := writer.New(s, writer.Params{
		DataType:    dataType,
		ImageFormat: imageFormat,
		CrsEPSG:     uint32(c.crsEPSG),
		TileSizePx:  uint16(c.tileSizePx),
		NumLevels:   len(levels),
	})
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	bar := progressbar.NewOptions(-1, progressbar.OptionShowIts(), progressbar.OptionShowCount())
	for _, level := range levels {
		if err := w.BeginLevel(level.Plan); err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
		for rec := range level.Tiles {
			if err := w.WriteTile(rec.Row, rec.Col, rec.Payload); err != nil {
				log.Println(err)
				return subcommands.ExitFailure
			}
			bar.Add(1)
		}
		if err := tileSourceErr(src); err != nil {
			log.Printf("build: level %d tile iteration failed: %v", level.Plan.LevelID, err)
			return subcommands.ExitFailure
		}
		if err := w.FinishLevel(); err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
	}
	bar.Finish()
	fmt.Fprintln(os.Stderr)

	if err := w.Close(); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
