package searchlog

import (
	"context"
	"time"

	"github.com/JonMunkholm/sheetlookup/internal/logging"
)

// Recorder delivers entries and keeps every entry in the local sink.
type Recorder struct {
	deliverer *Deliverer
	sink      Sink
}

// NewRecorder returns a Recorder. A nil deliverer keeps entries local only.
func NewRecorder(deliverer *Deliverer, sink Sink) *Recorder {
	return &Recorder{deliverer: deliverer, sink: sink}
}

// Remote reports whether entries are delivered to a remote endpoint.
func (r *Recorder) Remote() bool { return r.deliverer != nil }

// Record delivers e once and stores the result. Failures are logged, never
// returned.
func (r *Recorder) Record(ctx context.Context, e Entry) Entry {
	logger := logging.WithFields(ctx, "entry_id", e.ID, "session", e.SessionID)

	if r.deliverer != nil {
		e = r.deliver(ctx, e)
		if !e.Delivered {
			logger.Warn("search log delivery failed, kept locally", "error", e.LastError)
		}
	}

	if err := r.sink.Save(ctx, e); err != nil {
		logger.Error("search log store failed", "error", err)
	}
	return e
}

// History returns the most recent entries, newest first.
func (r *Recorder) History(ctx context.Context, limit int) ([]Entry, error) {
	return r.sink.Recent(ctx, limit)
}

func (r *Recorder) deliver(ctx context.Context, e Entry) Entry {
	e.Attempts++
	via, err := r.deliverer.Deliver(ctx, e)
	if err != nil {
		e.LastError = err.Error()
		return e
	}
	e.Delivered = true
	e.DeliveredVia = via
	e.LastError = ""
	return e
}

// Flush re-delivers up to batch pending entries and reports how many
// succeeded. Entries evicted or pruned while in flight are not stored again.
func (r *Recorder) Flush(ctx context.Context, batch int) (int, error) {
	if r.deliverer == nil {
		return 0, nil
	}

	pending, err := r.sink.Pending(ctx, batch)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, e := range pending {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		e = r.deliver(ctx, e)
		if e.Delivered {
			delivered++
		}
		ok, err := r.sink.Update(ctx, e)
		if err != nil {
			return delivered, err
		}
		if !ok {
			logging.FromContext(ctx).Debug("search log entry gone before flush finished", "entry_id", e.ID)
		}
	}
	return delivered, nil
}

// Prune drops entries older than retention.
func (r *Recorder) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	return r.sink.Prune(ctx, time.Now().Add(-retention))
}
