package metrics

import (
	"sync"
	"time"

	"github.com/volleyscore/scoreboard/internal/domain"
)

type commandStats struct {
	calls       int
	errors      int
	lastLatency time.Duration
}

// Recorder keeps in-process command counters and forwards every observation to the
// OpenTelemetry instruments when telemetry is enabled. A nil Recorder is a no-op.
type Recorder struct {
	mu       sync.Mutex
	commands map[string]*commandStats
	relayed  int
	otel     *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		commands: make(map[string]*commandStats),
		otel:     otel,
	}
}

// RecordCommand counts a scoreboard command and its outcome.
func (r *Recorder) RecordCommand(command string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats, ok := r.commands[command]
	if !ok {
		stats = &commandStats{}
		r.commands[command] = stats
	}
	stats.calls++
	stats.lastLatency = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordCommand(command, duration, errorCode(err))
	}
}

// RecordHTTPRequest tracks basic HTTP metrics. path should be the route pattern.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// RecordRelayCycle tracks one outbox relay pass.
func (r *Recorder) RecordRelayCycle(published int, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.relayed += published
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordRelay(published, duration, err)
	}
}

// Snapshot is a copy of the stats for one command.
type Snapshot struct {
	Calls       int
	Errors      int
	LastLatency time.Duration
}

func (r *Recorder) Snapshot(command string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.commands[command]
	if !ok {
		return Snapshot{}
	}
	return Snapshot{Calls: stats.calls, Errors: stats.errors, LastLatency: stats.lastLatency}
}

// Relayed returns the number of outbox events published so far.
func (r *Recorder) Relayed() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.relayed
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := domain.AsAppError(err); ok {
		return appErr.Code
	}
	return domain.CodeInternal
}
