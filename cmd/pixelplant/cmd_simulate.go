package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pixelplant/internal/plant"
	"github.com/nvandessel/pixelplant/internal/runner"
	"github.com/nvandessel/pixelplant/internal/simulation"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate [scenario]",
		Short: "Run a simulated day on a virtual clock",
		Long: `Run the plant through a scenario in virtual time and print what it said.

Nothing is read from or written to the data directory; the configured
settings are used as is.

Built-in scenarios: ` + strings.Join(simulation.BuiltinNames(), ", ") + `

Examples:
  pixelplant simulate workday
  pixelplant simulate --file my-day.yaml
  pixelplant simulate --replay recorded.jsonl   # readings need an "at" time
  pixelplant simulate --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			file, _ := cmd.Flags().GetString("file")
			replay, _ := cmd.Flags().GetString("replay")
			step, _ := cmd.Flags().GetDuration("step")
			list, _ := cmd.Flags().GetBool("list")

			out := cmd.OutOrStdout()
			if list {
				if jsonOut {
					return json.NewEncoder(out).Encode(map[string]interface{}{"scenarios": simulation.BuiltinNames()})
				}
				for _, name := range simulation.BuiltinNames() {
					sc, _ := simulation.Builtin(name)
					fmt.Fprintf(out, "  %-10s %v\n", name, sc.Duration())
				}
				return nil
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts := []simulation.Option{simulation.WithConfig(cfg)}

			var res *simulation.Result
			switch {
			case replay != "":
				in, err := openInput(cmd, replay)
				if err != nil {
					return err
				}
				defer in.Close()
				readings, err := readReadings(in)
				if err != nil {
					return err
				}
				res, err = simulation.Replay(replay, readings, step, opts...)
				if err != nil {
					return err
				}
			default:
				sc, err := pickScenario(args, file)
				if err != nil {
					return err
				}
				res, err = simulation.Run(sc, opts...)
				if err != nil {
					return err
				}
			}

			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"name":     res.Name,
					"start":    res.Start,
					"end":      res.End,
					"messages": res.Outputs,
					"events":   res.Events,
					"final":    res.Final,
				})
			}
			res.Report(out)
			return nil
		},
	}

	cmd.Flags().String("file", "", "YAML scenario file")
	cmd.Flags().String("replay", "", "JSONL readings to replay, or - for stdin")
	cmd.Flags().Duration("step", simulation.DefaultStep, "Virtual time between ticks when replaying")
	cmd.Flags().Bool("list", false, "List built-in scenarios")

	return cmd
}

// pickScenario resolves a built-in name or a scenario file. The workday is
// the default.
func pickScenario(args []string, file string) (simulation.Scenario, error) {
	if file != "" {
		if len(args) > 0 {
			return simulation.Scenario{}, fmt.Errorf("give either a scenario name or --file, not both")
		}
		return simulation.LoadScenario(file)
	}
	name := "workday"
	if len(args) > 0 {
		name = args[0]
	}
	sc, ok := simulation.Builtin(name)
	if !ok {
		return simulation.Scenario{}, fmt.Errorf("unknown scenario %q (built-in: %s)", name, strings.Join(simulation.BuiltinNames(), ", "))
	}
	return sc, nil
}

// readReadings decodes every JSONL reading in r. Invalid lines are errors
// here: a replay should be exact.
func readReadings(r io.Reader) ([]plant.Reading, error) {
	var readings []plant.Reading
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		rd, err := runner.ParseReading(line, text)
		if err != nil {
			return nil, err
		}
		readings = append(readings, rd)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading replay input: %w", err)
	}
	return readings, nil
}
