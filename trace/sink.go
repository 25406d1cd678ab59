package trace

import "github.com/comalice/framefsm"

// ChannelSink is an Observer that forwards records to a channel. Publishing
// never blocks the coordinator: records are dropped when the channel is
// full.
type ChannelSink struct {
	ch      chan<- framefsm.Record
	dropped uint64
}

// NewChannelSink creates a ChannelSink with the given output channel.
func NewChannelSink(ch chan<- framefsm.Record) *ChannelSink {
	return &ChannelSink{ch: ch}
}

// Observe implements framefsm.Observer.
func (s *ChannelSink) Observe(rec framefsm.Record) {
	select {
	case s.ch <- rec:
	default:
		s.dropped++
	}
}

// Dropped returns how many records were discarded. Read it from the
// coordinator's goroutine.
func (s *ChannelSink) Dropped() uint64 { return s.dropped }

// Close closes the output channel.
func (s *ChannelSink) Close() error {
	close(s.ch)
	return nil
}
