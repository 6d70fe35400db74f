package liveview

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"unistore/internal/components/daylight"
	"unistore/store"
)

// Run is the single-writer loop. Every store dispatch, host render and
// state read happens here; the transport goroutines only feed the
// channels. Run returns when ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	defer close(s.done)

	ticker := s.clk.NewTicker(s.tickEvery)
	defer ticker.Stop()

	s.logger.Info("Liveview loop started",
		zap.Duration("tick_interval", s.tickEvery))

	for {
		select {
		case in := <-s.actions:
			s.handleAction(in)

		case c := <-s.syncs:
			s.logger.Debug("Syncing client", zap.String("client_id", c.id))
			s.host.RenderAll()

		case at := <-ticker.C():
			if _, err := s.st.Dispatch(store.Action{Type: daylight.ActionTick, Payload: at}); err != nil {
				s.logger.Error("Tick dispatch failed", zap.Error(err))
				continue
			}
			s.host.Flush()

		case reply := <-s.snapshots:
			reply <- s.snapshotState()

		case <-ctx.Done():
			s.logger.Info("Liveview loop stopping")
			return
		}
	}
}

// handleAction dispatches one client action. A rejected action turns
// into an error frame for the sender; nobody else hears about it.
func (s *Server) handleAction(in inbound) {
	if _, err := s.st.Dispatch(in.action); err != nil {
		s.logger.Warn("Action rejected",
			zap.String("client_id", in.from.id),
			zap.Error(err))
		s.sendError(in.from, err)
		return
	}
	s.host.Flush()
}

// snapshotState marshals the current state, nil when encoding fails
func (s *Server) snapshotState() []byte {
	data, err := json.Marshal(StateResponse{
		Title: s.title,
		State: s.st.GetState(),
	})
	if err != nil {
		s.logger.Error("Failed to encode state", zap.Error(err))
		return nil
	}
	return data
}
