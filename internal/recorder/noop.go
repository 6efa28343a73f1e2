package recorder

import "PairTrader/internal/model"

// NoopRecorder is a no-op implementation used when nothing is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCycle(_ *CycleEvent) error { return nil }
func (n *NoopRecorder) RecordTrade(_ *model.Fill) error { return nil }
func (n *NoopRecorder) Close() error                    { return nil }
