// Package runtime drives a replay session: it reads update records from
// a capture, hands them to the reassembly engine one at a time, and
// routes completed stories to the archive and the downstream adapter.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/newswire-io/restitch/adapter"
	"github.com/newswire-io/restitch/archive"
	"github.com/newswire-io/restitch/engine"
	"github.com/newswire-io/restitch/log"
	"github.com/newswire-io/restitch/metrics"
	"github.com/newswire-io/restitch/store"
	"github.com/newswire-io/restitch/types"
	"github.com/newswire-io/restitch/wire"
)

// DefaultSweepInterval is how often the store sweep runs during replay.
const DefaultSweepInterval = 30 * time.Second

// Options configures a replay session.
type Options struct {
	// Store is the fragment store backend (required).
	Store store.Store
	// Logger receives session logs (required).
	Logger *log.Logger
	// Meta identifies the session (required, normalized by NewSession).
	Meta *types.SessionMeta
	// Collector accumulates session metrics (optional, nil-safe).
	Collector *metrics.Collector
	// Adapter publishes completed stories downstream (optional).
	Adapter adapter.Adapter
	// Archive persists completed story documents (optional).
	Archive archive.Writer
	// SweepInterval is how often the eviction sweep runs (default 30s).
	SweepInterval time.Duration
}

// Session consumes one capture end to end.
type Session struct {
	opts      Options
	engine    *engine.Engine
	lastSweep time.Time
	now       func() time.Time
}

// NewSession creates a session from options.
func NewSession(opts Options) *Session {
	opts.Meta.Normalize()
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	return &Session{
		opts:   opts,
		engine: engine.New(opts.Store, opts.Logger),
		now:    time.Now,
	}
}

// Run replays the capture until EOF, a fatal stream error, a store
// backend failure, or context cancellation. The report is returned in
// all cases and reflects everything processed so far.
//
// Rejections are not fatal: they are logged, counted, and the loop
// moves on. The feed is never torn down by a reassembly error.
func (s *Session) Run(ctx context.Context, r io.Reader) (*Report, error) {
	started := s.now()
	s.lastSweep = started
	dec := wire.NewFrameDecoder(r)

	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("session canceled: %w", err)
			break
		}

		payload, err := dec.ReadFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// No resync after a bad frame: the rest of the capture
			// cannot be trusted.
			s.opts.Collector.IncFrameError()
			s.opts.Logger.Error("frame error", map[string]any{
				"error": err.Error(),
			})
			runErr = fmt.Errorf("frame error: %w", err)
			break
		}

		rec, err := wire.DecodeRecord(payload)
		if err != nil {
			s.opts.Collector.IncFrameError()
			s.opts.Logger.Error("record decode error", map[string]any{
				"error": err.Error(),
			})
			runErr = fmt.Errorf("record decode error: %w", err)
			break
		}
		s.opts.Collector.IncRecordRead()

		if !rec.IsUpdate() {
			s.opts.Collector.IncRecordSkipped()
			s.opts.Logger.Debug("record skipped", map[string]any{
				"type": rec.Type,
			})
			continue
		}

		if err := s.processUpdate(ctx, rec); err != nil {
			runErr = err
			break
		}

		s.maybeSweep(ctx)
	}

	s.finalSweep(ctx)
	report := s.buildReport(started)

	if runErr != nil {
		return report, runErr
	}
	return report, nil
}

// processUpdate hands one update record to the engine and routes the
// outcome. Only store backend failures propagate as errors.
func (s *Session) processUpdate(ctx context.Context, rec *types.UpdateRecord) error {
	s.opts.Collector.IncFragmentReceived()

	out, err := s.engine.Process(ctx, rec)
	if err != nil {
		s.opts.Logger.Error("fragment store failure", map[string]any{
			"error": err.Error(),
		})
		return fmt.Errorf("fragment store failure: %w", err)
	}

	switch out.Status {
	case types.StatusPending:
		if out.FragNum == 1 {
			s.opts.Collector.IncEnvelopeOpened()
		}

	case types.StatusRejected:
		s.opts.Collector.IncRejected(string(out.Reason))

	case types.StatusCompleted:
		s.opts.Collector.IncStoryCompleted()
		s.deliver(ctx, out)
	}
	return nil
}

// deliver archives and publishes a completed story. Downstream failures
// are counted and logged but never stop the replay.
func (s *Session) deliver(ctx context.Context, out types.Outcome) {
	if s.opts.Archive != nil {
		meta := archive.StoryMeta{
			GUID:   out.GUID,
			Source: out.Source,
			Day:    archive.DayOf(out.Story.VersionCreated, s.now()),
		}
		if err := s.opts.Archive.WriteStory(ctx, meta, out.Document); err != nil {
			s.opts.Collector.IncArchiveFailure()
			s.opts.Logger.Error("archive write failed", map[string]any{
				"guid":  out.GUID,
				"error": err.Error(),
			})
		} else {
			s.opts.Collector.IncArchiveSuccess()
		}
	}

	if s.opts.Adapter != nil {
		event := &adapter.StoryCompletedEvent{
			SchemaVersion:  adapter.SchemaVersion,
			EventType:      adapter.EventTypeStoryCompleted,
			GUID:           out.GUID,
			Source:         out.Source,
			RIC:            s.opts.Meta.RIC,
			SessionID:      s.opts.Meta.SessionID,
			Headline:       out.Story.Headline,
			Language:       out.Story.Language,
			Provider:       out.Story.Provider,
			VersionCreated: out.Story.VersionCreated,
			Timestamp:      s.now().UTC().Format(time.RFC3339),
			Fragments:      out.FragNum,
			Story:          out.Document,
		}
		if err := s.opts.Adapter.Publish(ctx, event); err != nil {
			s.opts.Collector.IncPublishFailure()
			s.opts.Logger.Error("adapter publish failed", map[string]any{
				"guid":  out.GUID,
				"error": err.Error(),
			})
		} else {
			s.opts.Collector.IncPublishSuccess()
		}
	}
}

// maybeSweep runs the eviction sweep when the interval has elapsed.
// The loop is synchronous, so the sweep piggybacks on record processing
// rather than running on its own goroutine.
func (s *Session) maybeSweep(ctx context.Context) {
	now := s.now()
	if now.Sub(s.lastSweep) < s.opts.SweepInterval {
		return
	}
	s.lastSweep = now

	evicted, err := s.opts.Store.Sweep(ctx, now)
	if err != nil {
		s.opts.Logger.Warn("eviction sweep failed", map[string]any{
			"error": err.Error(),
		})
		return
	}
	if evicted > 0 {
		s.opts.Collector.AddEnvelopesEvicted(int64(evicted))
		s.opts.Logger.Info("envelopes evicted", map[string]any{
			"count": evicted,
		})
	}
}

// finalSweep runs one last sweep so the report reflects expired
// envelopes even on short captures.
func (s *Session) finalSweep(ctx context.Context) {
	evicted, err := s.opts.Store.Sweep(ctx, s.now())
	if err == nil && evicted > 0 {
		s.opts.Collector.AddEnvelopesEvicted(int64(evicted))
	}
}

// buildReport assembles the end-of-session report.
func (s *Session) buildReport(started time.Time) *Report {
	ended := s.now()
	open, err := s.opts.Store.Len(context.Background())
	if err != nil {
		open = -1 // store unavailable at shutdown
	}

	return &Report{
		SessionID:     s.opts.Meta.SessionID,
		RIC:           s.opts.Meta.RIC,
		Service:       s.opts.Meta.Service,
		StartedAt:     started.UTC().Format(time.RFC3339),
		EndedAt:       ended.UTC().Format(time.RFC3339),
		DurationMs:    ended.Sub(started).Milliseconds(),
		OpenEnvelopes: open,
		Metrics:       s.opts.Collector.Snapshot(),
	}
}
