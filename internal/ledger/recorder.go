package ledger

import audit "tollgate/pkg/platform/audit"

// Recorder wraps a Tx and remembers the events emitted through it, so a
// service can log them once the transaction has committed.
type Recorder struct {
	Tx
	emitted []audit.Event
}

func NewRecorder(tx Tx) *Recorder {
	return &Recorder{Tx: tx}
}

func (r *Recorder) Emit(event audit.Event) {
	r.Tx.Emit(event)
	r.emitted = append(r.emitted, event)
}

// Events returns the emitted events in order.
func (r *Recorder) Events() []audit.Event {
	return r.emitted
}
