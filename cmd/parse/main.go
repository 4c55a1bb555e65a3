package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bgatm/replay-engine/pkg/parser"
)

func main() {
	tablePath := flag.String("table", "", "optional table page HTML for ELO data")
	replayID := flag.String("id", "", "replay id (defaults to the input filename)")
	outPath := flag.String("o", "", "write JSON here instead of stdout")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <replay.html>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	inPath := flag.Arg(0)

	raw, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", inPath, err)
		os.Exit(1)
	}

	var table []byte
	if *tablePath != "" {
		table, err = os.ReadFile(*tablePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", *tablePath, err)
			os.Exit(1)
		}
	}

	id := *replayID
	if id == "" {
		base := filepath.Base(inPath)
		id = strings.TrimSuffix(base, filepath.Ext(base))
	}

	g, err := parser.New().ParseWithTable(string(raw), string(table), id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}

	for _, w := range g.Metadata.ParseWarnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode replay: %v\n", err)
		os.Exit(1)
	}

	if *outPath == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *outPath, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s (%d moves)\n", *outPath, g.Metadata.TotalMoves)
}
