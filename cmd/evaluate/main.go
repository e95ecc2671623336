// Command evaluate plays headless soccer episodes between two policies and
// prints per-episode scores, fitness and reproducibility hashes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"soccer-arena/internal/match"
	"soccer-arena/internal/participant"
	"soccer-arena/internal/policy"
	"soccer-arena/internal/policy/script"
	"soccer-arena/internal/render"
	"soccer-arena/internal/seeding"
	"soccer-arena/internal/soccer"
)

type options struct {
	seed     int64
	players  int
	cycles   int
	episodes int
	left     string
	right    string
	noise    bool
	jsonOut  bool
	pngPath  string
}

// summary aggregates every episode of one run.
type summary struct {
	Episodes   int     `json:"episodes"`
	LeftWins   int     `json:"leftWins"`
	RightWins  int     `json:"rightWins"`
	Draws      int     `json:"draws"`
	GoalsLeft  float64 `json:"avgGoalsLeft"`
	GoalsRight float64 `json:"avgGoalsRight"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	fs.Int64Var(&o.seed, "seed", 42, "seed base; episode seeds derive from it")
	fs.IntVar(&o.players, "players", 2, "players per side")
	fs.IntVar(&o.cycles, "cycles", 600, "cycles per episode")
	fs.IntVar(&o.episodes, "episodes", 1, "number of episodes")
	fs.StringVar(&o.left, "left", "", "JS policy for the left side (default: chase the ball)")
	fs.StringVar(&o.right, "right", "", "JS policy for the right side (default: chase the ball)")
	fs.BoolVar(&o.noise, "noise", true, "physics noise")
	fs.BoolVar(&o.jsonOut, "json", false, "print JSON results")
	fs.StringVar(&o.pngPath, "png", "", "write the final frame of the last episode as PNG")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.players <= 0 || o.cycles <= 0 || o.episodes <= 0 {
		return o, fmt.Errorf("players, cycles and episodes must be positive")
	}
	return o, nil
}

func loadExecutor(path string) (policy.Executor, error) {
	if path == "" {
		return policy.ChaseBall{}, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	exec, err := script.New(string(src))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	return exec, nil
}

func side(name string, n int, exec policy.Executor) []participant.Participant {
	out := make([]participant.Participant, n)
	for i := range out {
		out[i] = participant.NewBot(fmt.Sprintf("%s-%d", name, i+1), name, exec)
	}
	return out
}

func run(args []string, out io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	leftExec, err := loadExecutor(o.left)
	if err != nil {
		return err
	}
	rightExec, err := loadExecutor(o.right)
	if err != nil {
		return err
	}

	params := soccer.DefaultParams()
	params.Noise = o.noise
	registry := policy.NewRegistry()

	var (
		results []match.RunResult
		sum     = summary{Episodes: o.episodes}
		last    *match.Runner
	)
	for ep := 0; ep < o.episodes; ep++ {
		runner, err := match.NewRunner(match.Config{
			Params:   params,
			Seed:     seeding.MatchSeed(o.seed, ep, "evaluate"),
			Cycles:   o.cycles,
			Left:     side("left", o.players, leftExec),
			Right:    side("right", o.players, rightExec),
			Registry: registry,
		}, match.DefaultFitnessWeights())
		if err != nil {
			return fmt.Errorf("episode %d: %w", ep, err)
		}
		res := runner.Run()
		results = append(results, res)
		last = runner

		switch res.Result {
		case match.ResultLeft:
			sum.LeftWins++
		case match.ResultRight:
			sum.RightWins++
		default:
			sum.Draws++
		}
		sum.GoalsLeft += float64(res.Score.Left)
		sum.GoalsRight += float64(res.Score.Right)
	}
	sum.GoalsLeft /= float64(o.episodes)
	sum.GoalsRight /= float64(o.episodes)

	if o.pngPath != "" && last != nil {
		f, err := os.Create(o.pngPath)
		if err != nil {
			return fmt.Errorf("create png: %w", err)
		}
		defer f.Close()
		if err := render.New(840, 560).EncodePNG(f, last.Snapshot()); err != nil {
			return fmt.Errorf("render png: %w", err)
		}
	}

	if o.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"episodes": results, "summary": sum})
	}

	for i, res := range results {
		fmt.Fprintf(out, "episode %d seed=%d score=%d-%d result=%s hash=%s\n",
			i, res.Seed, res.Score.Left, res.Score.Right, resultName(res.Result), res.EpisodeHash)
		ids := make([]string, 0, len(res.Players))
		for id := range res.Players {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			st := res.Players[id]
			fmt.Fprintf(out, "  %-8s goals=%d assists=%d touches=%d fitness=%.2f\n", id, st.Goals, st.Assists, st.Touches, st.Fitness)
		}
	}
	fmt.Fprintf(out, "summary: %d episodes, left %d / right %d / draws %d, avg goals %.2f-%.2f\n",
		sum.Episodes, sum.LeftWins, sum.RightWins, sum.Draws, sum.GoalsLeft, sum.GoalsRight)
	return nil
}

func resultName(r match.Result) string {
	if r == match.ResultNone {
		return "none"
	}
	return string(r)
}
