// demtool is a CLI utility for inspecting DEM tile sets and running the
// terrain pipeline without a window.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// errUsage makes run print the usage text.
var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	if len(argv) < 1 {
		printUsage()
		return 1
	}

	command := argv[0]
	args := argv[1:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "tile":
		err = cmdTile(args)
	case "sample":
		err = cmdSample(args)
	case "mesh":
		err = cmdMesh(args)
	case "frame":
		err = cmdFrame(args)
	case "pack":
		err = cmdPack(args)
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage()
		return 1
	}

	switch {
	case errors.Is(err, errUsage):
		printUsage()
		return 1
	case err != nil:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Fprintln(stderr, `demtool - DEM terrain tile utility

Usage:
  demtool <command> [options]

Stores are {z}/{x}/{y}.png|webp directories or .mbtiles archives.

Commands:
  info <store>                          Show tile counts per zoom and metadata
  tile [-encoding e] <store> <z/x/y>    Show size and elevation range of a tile
  sample [-encoding e] [-exaggeration x] <store> <z/x/y> <u> <v>
                                        Elevation at normalized (u, v) of a tile,
                                        falling back to the nearest ancestor
  mesh [-grid n]                        Show terrain mesh sizes
  frame [-config f] [-frames n] [-exaggeration x] [-log f] <store>
                                        Render frames with the headless backend
  pack [-encoding e] [-name s] <dir> <out.mbtiles>
                                        Copy a tile directory into an MBTiles archive

Examples:
  demtool info ./tiles
  demtool tile ./tiles 5/3/3
  demtool sample -exaggeration 2 dem.mbtiles 7/12/13 0.5 0.5
  demtool frame -frames 2 ./tiles
  demtool pack ./tiles dem.mbtiles`)
}
