package testutil

import (
	"sync"

	"unistore/view"
)

// RecordingSink captures every frame batch a host publishes so tests
// can verify render output and gating without a transport.
type RecordingSink struct {
	mu      sync.Mutex
	batches [][]view.Frame
}

// NewRecordingSink creates an empty sink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// Publish records a copy of the batch. Empty batches are ignored, which
// matches what a host never emits.
func (s *RecordingSink) Publish(frames []view.Frame) {
	if len(frames) == 0 {
		return
	}
	batch := make([]view.Frame, len(frames))
	copy(batch, frames)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, batch)
}

// PublishCount returns how many batches have been published.
func (s *RecordingSink) PublishCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

// Frames returns all recorded frames in publish order.
func (s *RecordingSink) Frames() []view.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []view.Frame
	for _, batch := range s.batches {
		all = append(all, batch...)
	}
	return all
}

// FramesFor returns all recorded frames for the named component.
func (s *RecordingSink) FramesFor(name string) []view.Frame {
	var matched []view.Frame
	for _, frame := range s.Frames() {
		if frame.Name == name {
			matched = append(matched, frame)
		}
	}
	return matched
}

// LastFor returns the most recent frame for the named component, or nil
// if none was published.
func (s *RecordingSink) LastFor(name string) *view.Frame {
	frames := s.FramesFor(name)
	if len(frames) == 0 {
		return nil
	}
	last := frames[len(frames)-1]
	return &last
}

// Clear removes all recorded batches.
func (s *RecordingSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = nil
}
