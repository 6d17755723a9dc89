// opbox-replay runs a scripted session through the simulated rig and prints
// the outcome tallies. Script lines are:
//
//	<ms> np <0|1>       nosepoke level change
//	<ms> lick <0|1>     lick level change
//	<ms> cmd <label> [value]
//	end <ms>
//
// Blank lines and lines starting with # are ignored. Without a script file a
// built-in demonstration session is replayed.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/OpBox/RandIntGoNoGoSwitch/internal/config"
	"github.com/OpBox/RandIntGoNoGoSwitch/internal/replay"
)

// #region main
func main() {
	_ = godotenv.Load()

	var script replay.Script
	if len(os.Args) > 1 {
		s, err := loadScript(os.Args[1])
		if err != nil {
			log.Fatalf("load script %s: %v", os.Args[1], err)
		}
		script = s
	} else {
		script = demoScript()
	}

	subj := config.DefaultSubject()
	rew := config.DefaultReward()
	seed := int64(1)
	if v := os.Getenv("OPBOX_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			seed = n
		}
	}

	h := replay.NewHarness(&subj, &rew, seed)
	summary := h.Run(script)

	fmt.Printf("trials:              %d\n", summary.Trials)
	fmt.Printf("  hits:              %d\n", summary.Hits)
	fmt.Printf("  false alarms:      %d\n", summary.FalseAlarms)
	fmt.Printf("  misses:            %d\n", summary.Misses)
	fmt.Printf("  correct rejections:%d\n", summary.CorrectRejections)
	fmt.Printf("  aborted:           %d\n", summary.Aborted)
	fmt.Printf("reversals:           %d\n", summary.Reversals)
	fmt.Printf("rewards delivered:   %d\n", summary.RewardsFinished)
	fmt.Printf("events recorded:     %d\n", len(h.Recorder.Records))
}

// #endregion main

// #region script-loading
func loadScript(path string) (replay.Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return replay.Script{}, err
	}
	defer f.Close()

	var script replay.Script
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		if fields[0] == "end" {
			if len(fields) != 2 {
				return replay.Script{}, fmt.Errorf("line %d: end needs a time", lineNo)
			}
			at, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return replay.Script{}, fmt.Errorf("line %d: %w", lineNo, err)
			}
			script.EndMS = at
			continue
		}

		if len(fields) < 3 {
			return replay.Script{}, fmt.Errorf("line %d: too few fields", lineNo)
		}
		at, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return replay.Script{}, fmt.Errorf("line %d: %w", lineNo, err)
		}

		step := replay.Step{AtMS: at}
		switch fields[1] {
		case "np":
			step.Nosepoke = replay.Level(fields[2] == "1")
		case "lick":
			step.Lick = replay.Level(fields[2] == "1")
		case "cmd":
			value := ""
			if len(fields) > 3 {
				value = fields[3]
			}
			step.Command = replay.Cmd(fields[2], value)
		default:
			return replay.Script{}, fmt.Errorf("line %d: unknown step %q", lineNo, fields[1])
		}
		script.Steps = append(script.Steps, step)
	}
	if err := scanner.Err(); err != nil {
		return replay.Script{}, err
	}
	if script.EndMS == 0 {
		return replay.Script{}, fmt.Errorf("script has no end time")
	}
	return script, nil
}

// #endregion script-loading

// #region demo
func demoScript() replay.Script {
	return replay.Script{
		EndMS: 30000,
		Steps: []replay.Step{
			{AtMS: 10, Command: replay.Cmd("mean_iti", "0")},
			{AtMS: 11, Command: replay.Cmd("free_hits", "2")},
			{AtMS: 12, Command: replay.Cmd("session_start", "")},

			// Trial 1: held nosepoke, prompt exit, lick in the movement window.
			{AtMS: 1000, Nosepoke: replay.Level(true)},
			{AtMS: 1400, Nosepoke: replay.Level(false)},
			{AtMS: 1600, Lick: replay.Level(true)},
			{AtMS: 1700, Lick: replay.Level(false)},

			// Trial 2: too-brief poke, then a real one with no response.
			{AtMS: 5000, Nosepoke: replay.Level(true)},
			{AtMS: 5040, Nosepoke: replay.Level(false)},
			{AtMS: 6000, Nosepoke: replay.Level(true)},
			{AtMS: 6500, Nosepoke: replay.Level(false)},

			{AtMS: 25000, Command: replay.Cmd("session_quit", "")},
		},
	}
}

// #endregion demo
