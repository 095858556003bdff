package strategy

// ProgressEvent is one discrete planning checkpoint emitted while a
// strategy places lots.
type ProgressEvent struct {
	Strategy string
	Placed   int
	Total    int
	LotID    string
}

// ProgressSink receives planning checkpoints. Implementations must not
// block for long; delivery is best effort and never affects the plan.
type ProgressSink interface {
	Publish(ProgressEvent)
}

// ProgressFunc adapts a function to the ProgressSink interface.
type ProgressFunc func(ProgressEvent)

func (f ProgressFunc) Publish(e ProgressEvent) { f(e) }
