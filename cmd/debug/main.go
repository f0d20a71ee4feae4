package main

import (
	"flag"
	"fmt"
	"os"

	"xiangqi/internal/xiangqi"
)

func main() {
	layout := flag.String("board", "", "text board file (default: opening position)")
	flag.Parse()

	b := xiangqi.NewBoard()
	if *layout != "" {
		raw, err := os.ReadFile(*layout)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if b, err = xiangqi.ParseBoard(string(raw)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	fmt.Println(b.Glyphs())
	fmt.Printf("hash: %016x\n", b.Hash())
	for _, side := range []xiangqi.Side{xiangqi.Red, xiangqi.Black} {
		fmt.Printf("%s: %d moves, in check: %v\n", side, len(xiangqi.MovesForSide(&b, side)), xiangqi.InCheck(&b, side))
	}

	for i, pc := range b.Squares {
		if pc.IsEmpty() {
			continue
		}
		from, _ := xiangqi.CoordinateFromIndex(i)
		dests, err := xiangqi.Destinations(&b, from)
		if err != nil {
			continue
		}
		fmt.Printf("  %c %s -> %v\n", pc.Glyph(), from, dests)
	}
}
