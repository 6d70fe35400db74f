package view

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Host owns mounted component instances in mount order plus the dirty
// set accumulated between renders. Like the store it belongs to one
// goroutine and takes no locks; the surrounding loop serializes all
// access.
type Host struct {
	logger    *zap.Logger
	sink      Sink
	instances []*instance
	dirty     map[string]bool
}

type instance struct {
	name      string
	component Component
	own       Props
	renders   uint64
}

// NewHost creates a host publishing to sink. A nil sink drops frames;
// a nil logger logs nothing.
func NewHost(logger *zap.Logger, sink Sink) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Host{
		logger: logger,
		sink:   sink,
		dirty:  make(map[string]bool),
	}
}

// MountComponent adds c under a unique name with its explicit props.
// Anchored components get their invalidate trigger here. Freshly
// mounted components are dirty so the next Flush paints them.
func (h *Host) MountComponent(name string, c Component, own Props) error {
	if name == "" {
		return fmt.Errorf("component name cannot be empty")
	}
	if c == nil {
		return fmt.Errorf("component %s cannot be nil", name)
	}
	if h.lookup(name) != nil {
		return fmt.Errorf("component %s already mounted", name)
	}

	if a, ok := c.(Anchored); ok {
		if err := a.Mount(func() { h.markDirty(name) }); err != nil {
			return fmt.Errorf("mount %s: %w", name, err)
		}
	}

	h.instances = append(h.instances, &instance{
		name:      name,
		component: c,
		own:       own,
	})
	h.dirty[name] = true

	h.logger.Info("Component mounted",
		zap.String("component", name),
		zap.Int("mounted", len(h.instances)))
	return nil
}

// UnmountComponent removes the named component, calling its Unmount
// when it is anchored. Unknown names are ignored.
func (h *Host) UnmountComponent(name string) {
	for i, inst := range h.instances {
		if inst.name != name {
			continue
		}
		if a, ok := inst.component.(Anchored); ok {
			a.Unmount()
		}
		h.instances = append(h.instances[:i], h.instances[i+1:]...)
		delete(h.dirty, name)
		h.logger.Info("Component unmounted", zap.String("component", name))
		return
	}
}

// UnmountAll tears the tree down in reverse mount order.
func (h *Host) UnmountAll() {
	for i := len(h.instances) - 1; i >= 0; i-- {
		inst := h.instances[i]
		if a, ok := inst.component.(Anchored); ok {
			a.Unmount()
		}
		h.logger.Info("Component unmounted", zap.String("component", inst.name))
	}
	h.instances = nil
	h.dirty = make(map[string]bool)
}

// RenderAll renders every instance in mount order, clears the dirty
// set, publishes and returns the frames.
func (h *Host) RenderAll() []Frame {
	frames := make([]Frame, 0, len(h.instances))
	for _, inst := range h.instances {
		frames = append(frames, h.render(inst))
	}
	h.dirty = make(map[string]bool)
	h.publish(frames)
	return frames
}

// Flush renders only the instances marked dirty since the last render,
// in mount order. An empty dirty set publishes nothing and returns
// nil.
func (h *Host) Flush() []Frame {
	if len(h.dirty) == 0 {
		return nil
	}

	frames := make([]Frame, 0, len(h.dirty))
	for _, inst := range h.instances {
		if !h.dirty[inst.name] {
			continue
		}
		frames = append(frames, h.render(inst))
	}
	h.dirty = make(map[string]bool)

	h.logger.Debug("Flushed dirty components", zap.Int("frames", len(frames)))
	h.publish(frames)
	return frames
}

// Dirty returns the names currently marked, in mount order.
func (h *Host) Dirty() []string {
	names := make([]string, 0, len(h.dirty))
	for _, inst := range h.instances {
		if h.dirty[inst.name] {
			names = append(names, inst.name)
		}
	}
	return names
}

func (h *Host) render(inst *instance) Frame {
	inst.renders++

	generation := inst.renders
	if g, ok := inst.component.(generationer); ok {
		generation = g.Generation()
	}

	return Frame{
		Name:       inst.name,
		Markup:     inst.component.Render(inst.own),
		Generation: generation,
		RenderedAt: time.Now(),
	}
}

func (h *Host) publish(frames []Frame) {
	if h.sink == nil || len(frames) == 0 {
		return
	}
	h.sink.Publish(frames)
}

func (h *Host) markDirty(name string) {
	if h.lookup(name) == nil {
		return
	}
	h.dirty[name] = true
}

func (h *Host) lookup(name string) *instance {
	for _, inst := range h.instances {
		if inst.name == name {
			return inst
		}
	}
	return nil
}
