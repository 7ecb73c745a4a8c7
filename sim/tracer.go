package sim

import (
	"github.com/rs/xid"

	"github.com/wyrelab/wyre/datarec"
)

// A TraceEntry records the value of one output signal after one cycle.
// Values are hex strings so that multi-limb values survive storage intact.
type TraceEntry struct {
	Run    string
	Cycle  int
	Signal string
	Value  string
}

// A Tracer consumes trace entries as cycles complete.
type Tracer interface {
	Trace(e TraceEntry)
}

// A DBTracer persists trace entries through a data recorder, tagging each
// entry with a unique run ID so several runs can share one database.
type DBTracer struct {
	rec datarec.Recorder
	run string
}

// NewDBTracer creates a tracer writing to rec. Several tracers can share one
// recorder; the trace table is created once.
func NewDBTracer(rec datarec.Recorder) *DBTracer {
	t := &DBTracer{
		rec: rec,
		run: xid.New().String(),
	}

	exists := false
	for _, name := range rec.ListTables() {
		if name == "signal_trace" {
			exists = true
			break
		}
	}
	if !exists {
		t.rec.CreateTable("signal_trace", TraceEntry{})
	}

	return t
}

// Run returns the run ID entries are tagged with.
func (t *DBTracer) Run() string { return t.run }

func (t *DBTracer) Trace(e TraceEntry) {
	e.Run = t.run
	t.rec.InsertData("signal_trace", e)
}

// A CollectTracer keeps entries in memory, mainly for tests and for
// rendering compact traces.
type CollectTracer struct {
	Entries []TraceEntry
}

func (t *CollectTracer) Trace(e TraceEntry) {
	t.Entries = append(t.Entries, e)
}

// Signal returns the recorded values of one signal in cycle order.
func (t *CollectTracer) Signal(name string) []string {
	var out []string
	for _, e := range t.Entries {
		if e.Signal == name {
			out = append(out, e.Value)
		}
	}
	return out
}
