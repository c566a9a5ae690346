package navigator

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/parkpilot-core/internal/geo"
	"github.com/nerrad567/parkpilot-core/internal/occupancy"
)

// detailView is the open facility panel. Owned by the loop.
type detailView struct {
	generation     uint64
	facility       geo.Facility
	containerWidth float64

	// ctx is cancelled when the view closes; it bounds the layout fetch
	// and the poller.
	ctx    context.Context
	cancel context.CancelFunc

	state   DetailState
	message string
	layout  occupancy.Layout
	states  []occupancy.SlotState
	summary *occupancy.Summary
}

func (v *detailView) frame(referenceWidth float64, now time.Time) DetailFrame {
	f := DetailFrame{
		Generation:     v.generation,
		Facility:       v.facility,
		State:          v.state,
		Message:        v.message,
		LotName:        v.layout.LotName,
		ContainerWidth: v.containerWidth,
		At:             now,
	}
	if v.summary != nil {
		s := *v.summary
		f.Summary = &s
		f.Slots = occupancy.Render(v.layout, v.states, v.containerWidth, referenceWidth)
	}
	return f
}

// OpenDetail opens the detail view for a facility and loads its slot
// layout. Any open view is closed first.
//
// A non-positive containerWidth uses the configured default. OpenDetail
// returns once the layout has been fetched: on success polling has
// started; on failure the view is left Offline and the returned error
// wraps occupancy.ErrBackendUnavailable (or ErrInvalidLayout).
func (n *Navigator) OpenDetail(ctx context.Context, facilityID string, containerWidth float64) error {
	var result <-chan error
	err := n.do(ctx, func() error {
		view, err := n.beginDetail(facilityID, containerWidth)
		if err != nil {
			return err
		}
		result = n.startLayoutFetch(view)
		return nil
	})
	if err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CloseDetail stops polling and clears the detail view. Closing when no
// view is open is a no-op.
func (n *Navigator) CloseDetail(ctx context.Context) error {
	return n.do(ctx, func() error {
		v := n.detail
		if v == nil {
			return nil
		}
		n.closeDetail()
		n.lastDetail = nil

		n.logger.Info("detail view closed", "facility", v.facility.ID, "generation", v.generation)
		n.sink.DetailChanged(DetailFrame{
			Generation: v.generation,
			Facility:   v.facility,
			State:      DetailClosed,
			At:         time.Now(),
		})
		return nil
	})
}

// beginDetail replaces the open view with a new Connecting one.
func (n *Navigator) beginDetail(facilityID string, containerWidth float64) (*detailView, error) {
	f, err := n.opts.Facilities.Get(facilityID)
	if err != nil {
		return nil, err
	}
	if containerWidth <= 0 {
		containerWidth = n.opts.ContainerWidth
	}

	n.closeDetail()
	n.generation++

	ctx, cancel := context.WithCancel(n.runCtx)
	v := &detailView{
		generation:     n.generation,
		facility:       f,
		containerWidth: containerWidth,
		ctx:            ctx,
		cancel:         cancel,
		state:          DetailConnecting,
		message:        msgConnecting,
	}
	n.detail = v

	n.logger.Info("detail view opened", "facility", f.ID, "generation", v.generation)
	n.emitDetail(v)
	return v, nil
}

// closeDetail cancels the open view's fetch and poller.
func (n *Navigator) closeDetail() {
	if n.detail == nil {
		return
	}
	n.detail.cancel()
	n.detail = nil
}

// startLayoutFetch fetches the layout off the loop and applies it back on
// the loop. The returned channel yields the outcome exactly once.
func (n *Navigator) startLayoutFetch(v *detailView) <-chan error {
	result := make(chan error, 1)

	go func() {
		layout, err := n.backend.FetchLayout(v.ctx)
		select {
		case n.commands <- func() { result <- n.applyLayout(v, layout, err) }:
		case <-v.ctx.Done():
			result <- ErrDetailClosed
		}
	}()

	return result
}

// applyLayout runs on the loop once the layout fetch has finished.
func (n *Navigator) applyLayout(v *detailView, layout occupancy.Layout, fetchErr error) error {
	if n.detail != v {
		return ErrDetailClosed
	}

	if fetchErr != nil {
		v.state = DetailOffline
		v.message = msgOffline
		n.logger.Warn("slot layout unavailable",
			"facility", v.facility.ID,
			"generation", v.generation,
			"error", fetchErr,
		)
		n.emitDetail(v)
		return fmt.Errorf("loading layout for %s: %w", v.facility.ID, fetchErr)
	}

	v.layout = layout
	n.logger.Info("slot layout loaded",
		"facility", v.facility.ID,
		"lot_id", layout.LotID,
		"slots", layout.Len(),
	)

	go n.poller.Run(v.ctx, func(st occupancy.Status) {
		select {
		case n.polls <- pollResult{generation: v.generation, status: st, at: time.Now()}:
		case <-v.ctx.Done():
		}
	})
	return nil
}

// applyPoll decodes a status into the open view. Results from a closed or
// replaced view are dropped.
func (n *Navigator) applyPoll(res pollResult) {
	v := n.detail
	if v == nil || v.generation != res.generation {
		n.logger.Debug("dropping stale poll result", "generation", res.generation)
		return
	}

	v.states = occupancy.DecodeStatus(res.status.StatusString, v.layout.Len(), n.opts.OccupiedCodes)
	summary := occupancy.Counts(v.states)
	v.summary = &summary
	v.state = DetailLive
	v.message = fmt.Sprintf(msgAvailable, summary.Free)

	n.emitDetail(v)
}

func (n *Navigator) emitDetail(v *detailView) {
	f := v.frame(n.opts.ReferenceWidth, time.Now())
	n.lastDetail = &f
	n.sink.DetailChanged(f)
}
