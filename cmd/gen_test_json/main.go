package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"

	"xiangqi/internal/xiangqi"
)

// TestCase 一个局面上的两个阶段：
// Stage 0 可选的棋子（Mask 里为 1 的格子）；Stage 1 选中 Anchor 后的落点
type TestCase struct {
	Board  []int8 `json:"board"`
	Pla    int    `json:"pla"` // 0=红, 1=黑
	Stage  int    `json:"stage"`
	Anchor int    `json:"anchor"`
	Mask   []int8 `json:"mask"`
}

func encodeBoard(b *xiangqi.Board) []int8 {
	out := make([]int8, xiangqi.NumSquares)
	for i, pc := range b.Squares {
		out[i] = int8(pc)
	}
	return out
}

// generate 随机对弈 games 局，每步记录两个阶段；吃将或无子可走时结束一局
func generate(r *rand.Rand, games, maxPlies int) []TestCase {
	var cases []TestCase
	for g := 0; g < games; g++ {
		c := xiangqi.NewController()
		for ply := 0; ply < maxPlies; ply++ {
			side, ok := c.Turn().ToMove()
			if !ok {
				break
			}
			b := c.Track().Board()
			moves := xiangqi.MovesForSide(&b, side)
			if len(moves) == 0 {
				break
			}
			board := encodeBoard(&b)
			pla := int(side)

			mask0 := make([]int8, xiangqi.NumSquares)
			for _, mv := range moves {
				mask0[mv.From.Index()] = 1
			}
			cases = append(cases, TestCase{Board: board, Pla: pla, Stage: 0, Anchor: -1, Mask: mask0})

			chosen := moves[r.IntN(len(moves))]
			mask1 := make([]int8, xiangqi.NumSquares)
			for _, mv := range moves {
				if mv.From == chosen.From {
					mask1[mv.To.Index()] = 1
				}
			}
			cases = append(cases, TestCase{Board: board, Pla: pla, Stage: 1, Anchor: chosen.From.Index(), Mask: mask1})

			// 走子走 Select 两次点击，和界面同一条路径
			if res := c.Select(chosen.From); res.Outcome != xiangqi.Selected {
				panic(fmt.Sprintf("select %s: %s", chosen.From, res.Outcome))
			}
			if res := c.Select(chosen.To); res.Outcome != xiangqi.Moved {
				panic(fmt.Sprintf("move %s -> %s: %s", chosen.From, chosen.To, res.Outcome))
			}
		}
	}
	return cases
}

func main() {
	games := flag.Int("games", 10, "number of random games")
	maxPlies := flag.Int("plies", 300, "max plies per game")
	seed := flag.Uint64("seed", 1, "random seed")
	out := flag.String("out", "move_gen_test_data.json", "output file")
	flag.Parse()

	r := rand.New(rand.NewPCG(*seed, *seed^0x9E3779B97F4A7C15))
	cases := generate(r, *games, *maxPlies)

	data, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Generated %d test cases from %d random games to %s\n", len(cases), *games, *out)
}
