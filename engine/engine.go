// Package engine implements story reassembly for the fragmented MRN
// news feed.
//
// A story arrives as one or more update records, each carrying a slice
// of a compressed JSON document. The engine validates that each slice
// belongs to the right story and arrives in order, accumulates bytes in
// the fragment store, and on completion decompresses and parses the
// document. Every failure mode is reported as a rejected outcome; no
// error ever escapes to terminate the caller's processing loop.
//
// Ordering rules, per the feed contract:
//   - Fragment numbering is 1-based and strictly contiguous per story.
//   - All fragments of one story arrive on one source (MRN_SRC).
//   - Gaps, duplicates, and regressions are rejected, not buffered:
//     the feed delivers fragments of one item in order on one source.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newswire-io/restitch/log"
	"github.com/newswire-io/restitch/store"
	"github.com/newswire-io/restitch/types"
)

// Engine reassembles fragmented stories from a stream of update records.
type Engine struct {
	store  store.Store
	logger *log.Logger
	now    func() time.Time
}

// New creates a reassembly engine over the given fragment store.
func New(st store.Store, logger *log.Logger) *Engine {
	return &Engine{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// Process handles one update record and reports the outcome.
//
// The returned error is reserved for store backend failures (for
// example a lost Redis connection); every protocol-level problem
// (malformed records, ordering violations, decode failures) surfaces as
// a rejected outcome instead. Rejections never mutate stored state, so
// a later retry of the same fragment fails the same check again; there
// is no automatic retry or self-healing.
func (e *Engine) Process(ctx context.Context, rec *types.UpdateRecord) (types.Outcome, error) {
	frag, rerr := parseFragment(rec)
	if rerr != nil {
		e.logger.Warn("record rejected", map[string]any{
			"reason": string(rerr.Reason),
			"detail": rerr.Detail,
		})
		return types.Outcome{
			Status: types.StatusRejected,
			Reason: rerr.Reason,
			Detail: rerr.Detail,
		}, nil
	}

	if frag.First() {
		return e.openStory(ctx, frag)
	}
	return e.continueStory(ctx, frag)
}

// openStory handles a first fragment (FRAG_NUM == 1).
//
// The common case is a single-fragment story: the payload already
// carries the declared total and decodes immediately without ever
// touching the store.
func (e *Engine) openStory(ctx context.Context, frag *types.Fragment) (types.Outcome, error) {
	got := int64(len(frag.Payload))

	switch {
	case got == frag.TotSize:
		return e.complete(frag.GUID, frag.Source, frag.FragNum, frag.Payload), nil

	case got > frag.TotSize:
		return e.reject(frag, types.RejectSizeMismatch,
			fmt.Sprintf("first fragment carries %d bytes, declared total is %d", got, frag.TotSize)), nil
	}

	now := e.now()
	env := &types.Envelope{
		GUID:        frag.GUID,
		Source:      frag.Source,
		Accumulated: frag.Payload,
		LastFragNum: 1,
		TotSize:     frag.TotSize,
		OpenedAt:    now,
		UpdatedAt:   now,
	}

	err := e.store.Insert(ctx, env)
	if errors.Is(err, store.ErrDuplicateID) {
		// A redelivered first fragment is authoritative: the stale
		// envelope's stream was abandoned upstream, so replace it.
		e.logger.Warn("replacing stale envelope", map[string]any{
			"guid":   frag.GUID,
			"source": frag.Source,
		})
		err = e.store.Update(ctx, env)
	}
	if err != nil {
		return types.Outcome{}, fmt.Errorf("open envelope %s: %w", frag.GUID, err)
	}

	e.logger.Debug("envelope opened", map[string]any{
		"guid":     frag.GUID,
		"source":   frag.Source,
		"tot_size": frag.TotSize,
		"received": got,
	})
	return e.pending(frag), nil
}

// continueStory handles a continuation fragment (FRAG_NUM > 1).
func (e *Engine) continueStory(ctx context.Context, frag *types.Fragment) (types.Outcome, error) {
	env, err := e.store.Find(ctx, frag.GUID)
	if errors.Is(err, store.ErrNotFound) {
		return e.reject(frag, types.RejectNoMatchingEnvelope,
			fmt.Sprintf("no open envelope for guid %s", frag.GUID)), nil
	}
	if err != nil {
		return types.Outcome{}, fmt.Errorf("find envelope %s: %w", frag.GUID, err)
	}

	if env.Source != frag.Source || frag.FragNum != env.LastFragNum+1 {
		return e.reject(frag, types.RejectOutOfOrderOrSourceMismatch,
			fmt.Sprintf("expected fragment %d from source %s, got fragment %d from source %s",
				env.LastFragNum+1, env.Source, frag.FragNum, frag.Source)), nil
	}

	merged := int64(len(env.Accumulated) + len(frag.Payload))
	if merged > env.TotSize {
		// Anomalous overflow. Reject without truncating or merging; the
		// stored envelope keeps its pre-fragment state.
		return e.reject(frag, types.RejectSizeMismatch,
			fmt.Sprintf("merge would reach %d bytes, declared total is %d", merged, env.TotSize)), nil
	}

	// env is a copy from Find; stored state changes only via Update/Remove.
	env.Accumulated = append(env.Accumulated, frag.Payload...)
	env.LastFragNum = frag.FragNum

	if merged < env.TotSize {
		env.UpdatedAt = e.now()
		if err := e.store.Update(ctx, env); err != nil {
			return types.Outcome{}, fmt.Errorf("update envelope %s: %w", frag.GUID, err)
		}
		e.logger.Debug("fragment merged", map[string]any{
			"guid":      frag.GUID,
			"frag_num":  frag.FragNum,
			"received":  merged,
			"remaining": env.TotSize - merged,
		})
		return e.pending(frag), nil
	}

	// Completion: the envelope is removed before decoding, so a decode
	// failure cannot be retried; the bytes are gone. One-shot completion
	// handling is preferred over buffering raw bytes for retry.
	if err := e.store.Remove(ctx, frag.GUID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return types.Outcome{}, fmt.Errorf("remove envelope %s: %w", frag.GUID, err)
	}
	return e.complete(frag.GUID, frag.Source, frag.FragNum, env.Accumulated), nil
}

// complete runs the decode sub-step on a finished byte sequence:
// decompress, then parse as UTF-8 JSON.
func (e *Engine) complete(guid, source string, fragNum int64, data []byte) types.Outcome {
	doc, err := decompress(data)
	if err != nil {
		e.logger.Warn("story rejected at decode", map[string]any{
			"guid":   guid,
			"reason": string(types.RejectDecodeError),
			"detail": err.Error(),
		})
		return types.Outcome{
			Status:  types.StatusRejected,
			GUID:    guid,
			Source:  source,
			FragNum: fragNum,
			Reason:  types.RejectDecodeError,
			Detail:  err.Error(),
		}
	}

	story, err := parseStory(doc)
	if err != nil {
		e.logger.Warn("story rejected at parse", map[string]any{
			"guid":   guid,
			"reason": string(types.RejectDecodeError),
			"detail": err.Error(),
		})
		return types.Outcome{
			Status:  types.StatusRejected,
			GUID:    guid,
			Source:  source,
			FragNum: fragNum,
			Reason:  types.RejectDecodeError,
			Detail:  err.Error(),
		}
	}

	e.logger.Info("story completed", map[string]any{
		"guid":      guid,
		"source":    source,
		"fragments": fragNum,
		"headline":  story.Headline,
	})
	return types.Outcome{
		Status:   types.StatusCompleted,
		GUID:     guid,
		Source:   source,
		FragNum:  fragNum,
		Story:    story,
		Document: doc,
	}
}

// pending builds a pending outcome for a merged-but-incomplete fragment.
func (e *Engine) pending(frag *types.Fragment) types.Outcome {
	return types.Outcome{
		Status:  types.StatusPending,
		GUID:    frag.GUID,
		Source:  frag.Source,
		FragNum: frag.FragNum,
	}
}

// reject builds a rejected outcome and logs it.
func (e *Engine) reject(frag *types.Fragment, reason types.RejectReason, detail string) types.Outcome {
	e.logger.Warn("fragment rejected", map[string]any{
		"guid":     frag.GUID,
		"source":   frag.Source,
		"frag_num": frag.FragNum,
		"reason":   string(reason),
		"detail":   detail,
	})
	return types.Outcome{
		Status:  types.StatusRejected,
		GUID:    frag.GUID,
		Source:  frag.Source,
		FragNum: frag.FragNum,
		Reason:  reason,
		Detail:  detail,
	}
}
