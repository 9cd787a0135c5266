package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Fepozopo/crayon/pkg/cli"
)

// Version information - set by ldflags during build
var (
	Version   = ""
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if Version != "" {
		cli.Version = Version
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("crayon %s\n", cli.Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("crayon - color line-art pages in the terminal")
			fmt.Println()
			fmt.Println("Usage: crayon [image]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables (a .env file is read too):")
			fmt.Println("  CRAYON_BOX_WIDTH, CRAYON_BOX_HEIGHT   canvas bounding box (896x627)")
			fmt.Println("  CRAYON_TOLERANCE=20                   fill color tolerance")
			fmt.Println("  CRAYON_LINEART_THRESHOLD=255          R+G+B below this is ink")
			fmt.Println("  CRAYON_MATCH=channel|lab              fill color comparison")
			fmt.Println("  CRAYON_HISTORY_LIMIT=0                undo depth (0 = unbounded)")
			fmt.Println("  CRAYON_DB=pages.db                    keep saved pages in SQLite")
			fmt.Println("  CRAYON_PALETTE=palette.yaml           custom colors and brush sizes")
			fmt.Println("  CRAYON_PREVIEW=0                      disable terminal previews")
			fmt.Println("  CRAYON_DEBUG=1                        debug output on stderr")
			return
		}
	}

	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ltime | log.Lshortfile)

	cli.RunCLI()
}
