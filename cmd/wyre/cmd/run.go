package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wyrelab/wyre/datarec"
	"github.com/wyrelab/wyre/examples"
	"github.com/wyrelab/wyre/sim"
)

var (
	runCycles int
	runTrace  string
)

var runCmd = &cobra.Command{
	Use:   "run NAME",
	Short: "Build and simulate an example design",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		design, ok := examples.Get(args[0])
		if !ok {
			return fmt.Errorf("unknown design %q; see `wyre list`", args[0])
		}

		collector := &sim.CollectTracer{}
		tracer := sim.Tracer(collector)

		tracePath := runTrace
		if tracePath == "" {
			tracePath = os.Getenv("WYRE_TRACE")
		}
		if tracePath != "" {
			rec := datarec.New(tracePath)
			db := sim.NewDBTracer(rec)
			tracer = teeTracer{collector, db}
			logrus.WithField("run", db.Run()).
				Infof("recording trace into %s.sqlite3", tracePath)
		}

		logrus.WithFields(logrus.Fields{
			"design": design.Name,
			"cycles": runCycles,
		}).Info("simulating")

		s, err := examples.Run(design, runCycles, tracer)
		if err != nil {
			return err
		}
		logrus.Debugf("finished after %d cycles", s.Cycle())

		printCompactTrace(collector)

		return nil
	},
}

type teeTracer []sim.Tracer

func (t teeTracer) Trace(e sim.TraceEntry) {
	for _, sub := range t {
		sub.Trace(e)
	}
}

// printCompactTrace renders one line per output signal, cycles left to
// right.
func printCompactTrace(c *sim.CollectTracer) {
	var order []string
	seen := map[string]bool{}
	for _, e := range c.Entries {
		if !seen[e.Signal] {
			seen[e.Signal] = true
			order = append(order, e.Signal)
		}
	}

	for _, name := range order {
		fmt.Printf("%s %s\n", name, strings.Join(c.Signal(name), " "))
	}
}

func init() {
	runCmd.Flags().IntVarP(&runCycles, "cycles", "n", 16,
		"number of cycles to simulate")
	runCmd.Flags().StringVarP(&runTrace, "trace", "t", "",
		"record a signal trace into this SQLite database path")
	rootCmd.AddCommand(runCmd)
}
