package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/annel0/voxel-sim/internal/config"
	"github.com/annel0/voxel-sim/internal/storage"
	"github.com/annel0/voxel-sim/internal/world"
	"github.com/annel0/voxel-sim/internal/world/terrain"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config path")
		command    = flag.String("cmd", "map", "Command: map, heights, column, inspect")
		seed       = flag.Int64("seed", 0, "World seed (overrides config)")
		centerX    = flag.Int("x", 0, "Center X")
		centerZ    = flag.Int("z", 0, "Center Z")
		radius     = flag.Int("radius", 32, "Map radius in blocks")
		step       = flag.Int("step", 1, "Blocks per map character")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Config load failed: %v", err)
	}
	if isFlagSet("seed") {
		cfg.World.Seed = *seed
	}

	gen := terrain.NewGenerator(
		terrain.DefaultParams().WithSeed(cfg.World.Seed),
		terrain.Shape{Height: cfg.World.ChunkHeight},
	)

	switch *command {
	case "map":
		printMap(os.Stdout, gen, *centerX, *centerZ, *radius, *step, biomeGlyph)

	case "heights":
		printMap(os.Stdout, gen, *centerX, *centerZ, *radius, *step, heightGlyph)

	case "column":
		printColumn(gen, *centerX, *centerZ)

	case "inspect":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := inspect(ctx, cfg.Storage); err != nil {
			log.Fatalf("❌ Inspect failed: %v", err)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", *command)
		flag.Usage()
		os.Exit(2)
	}
}

func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// biomeGlyph рисует биом колонки, деревья поверх биома
func biomeGlyph(col terrain.Column) byte {
	if col.Tree != nil {
		return 'T'
	}
	switch col.Biome {
	case terrain.BiomeTundra:
		return '*'
	case terrain.BiomeTemperate:
		return '"'
	case terrain.BiomeJungle:
		return '&'
	case terrain.BiomeDesert:
		return '.'
	default:
		return '?'
	}
}

func heightGlyph(col terrain.Column) byte {
	return byte('0' + col.Surface%10)
}

func printMap(w *os.File, gen *terrain.Generator, cx, cz, radius, step int, glyph func(terrain.Column) byte) {
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for z := cz - radius; z <= cz+radius; z += step {
		for x := cx - radius; x <= cx+radius; x += step {
			sb.WriteByte(glyph(gen.Column(x, z)))
		}
		sb.WriteByte('\n')
	}
	fmt.Fprint(w, sb.String())
	fmt.Fprintln(w, "Legend: * tundra, \" temperate, & jungle, . desert, T tree")
}

func printColumn(gen *terrain.Generator, x, z int) {
	col := gen.Column(x, z)
	fmt.Printf("Column (%d, %d)\n", x, z)
	fmt.Printf("  surface: %d\n", col.Surface)
	fmt.Printf("  biome:   %s\n", col.Biome)
	if col.Tree != nil {
		fmt.Printf("  tree:    %s, trunk %d..%d, canopy radius %d\n",
			col.Tree.Kind, col.Tree.Base, col.Tree.Top, col.Tree.CanopyRadius)
	}
	for y := col.Surface + 2; y >= 0 && y >= col.Surface-4; y-- {
		fmt.Printf("  y=%3d  block %d\n", y, gen.BlockAt(x, y, z))
	}
}

func inspect(ctx context.Context, cfg config.StorageConfig) error {
	kv, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	raw, err := kv.Get(ctx, world.ParamsRecordKey)
	switch {
	case err != nil:
		fmt.Printf("%s: %v\n", world.ParamsRecordKey, err)
	default:
		var pretty map[string]any
		if err := json.Unmarshal(raw, &pretty); err != nil {
			fmt.Printf("%s: corrupt (%v)\n", world.ParamsRecordKey, err)
		} else {
			out, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Printf("%s:\n%s\n", world.ParamsRecordKey, out)
		}
	}

	mods := world.NewModificationStore()
	res := mods.Load(ctx, kv, terrain.DefaultParams())
	if res.ParamsDefaulted {
		fmt.Printf("params would fall back to defaults: %v\n", res.ParamsErr)
	}
	if res.OverlayDefaulted {
		fmt.Printf("%s would fall back to empty: %v\n", world.DataRecordKey, res.OverlayErr)
		return nil
	}

	fmt.Printf("%s: %d overrides\n", world.DataRecordKey, res.Overrides)
	for _, key := range mods.ChunkKeys() {
		fmt.Printf("  %-14s %d\n", key, len(mods.Overrides(key)))
	}
	return nil
}
