package client

import (
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// ButtonState is the state of an item's adopt button.
type ButtonState int

const (
	ButtonIdle ButtonState = iota
	ButtonProcessing
	ButtonApproved
	ButtonRejected
)

func (s ButtonState) String() string {
	switch s {
	case ButtonIdle:
		return "idle"
	case ButtonProcessing:
		return "processing"
	case ButtonApproved:
		return "approved"
	case ButtonRejected:
		return "rejected"
	default:
		return fmt.Sprintf("ButtonState(%d)", int(s))
	}
}

// Button labels.
const (
	LabelIdle       = "Request Adoption"
	LabelRetry      = "Try Again"
	LabelProcessing = "Processing…"
	LabelApproved   = "Approved!"
	LabelRejected   = "Not approved"
)

// ButtonView is what the surface shows for one button.
type ButtonView struct {
	ItemID  string
	State   ButtonState
	Label   string
	Enabled bool
	Busy    bool
	// Styled marks the rejected look.
	Styled bool
}

type button struct {
	state   ButtonState
	version uint64
	retried bool
}

func (b button) view(itemID string) ButtonView {
	v := ButtonView{ItemID: itemID, State: b.state}
	switch b.state {
	case ButtonIdle:
		v.Label = LabelIdle
		if b.retried {
			v.Label = LabelRetry
		}
		v.Enabled = true
	case ButtonProcessing:
		v.Label = LabelProcessing
		v.Busy = true
	case ButtonApproved:
		v.Label = LabelApproved
	case ButtonRejected:
		v.Label = LabelRejected
		v.Enabled = true
		v.Styled = true
	}
	return v
}

var allowedTransitions = map[ButtonState][]ButtonState{
	ButtonIdle:       {ButtonProcessing},
	ButtonProcessing: {ButtonApproved, ButtonRejected, ButtonIdle},
	ButtonRejected:   {ButtonProcessing},
}

func canTransition(from, to ButtonState) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Buttons holds the per-item button state machines.
type Buttons struct {
	mu            sync.Mutex
	clock         clock.WithDelayedExecution
	rejectDisplay time.Duration
	surface       Surface
	items         map[string]*button
}

// NewButtons creates the state machines. Unknown items start Idle.
func NewButtons(clk clock.WithDelayedExecution, rejectDisplay time.Duration, surface Surface) *Buttons {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if surface == nil {
		surface = NoopSurface{}
	}
	return &Buttons{
		clock:         clk,
		rejectDisplay: rejectDisplay,
		surface:       surface,
		items:         make(map[string]*button),
	}
}

// State returns the item's current state.
func (b *Buttons) State(itemID string) ButtonState {
	return b.View(itemID).State
}

// View returns the item's current view.
func (b *Buttons) View(itemID string) ButtonView {
	b.mu.Lock()
	defer b.mu.Unlock()
	if btn, ok := b.items[itemID]; ok {
		return btn.view(itemID)
	}
	return button{}.view(itemID)
}

// StartProcessing disables the button while a request is in flight.
func (b *Buttons) StartProcessing(itemID string) error {
	_, err := b.transition(itemID, ButtonProcessing, false)
	return err
}

// Approve moves the button to its terminal approved state.
func (b *Buttons) Approve(itemID string) error {
	_, err := b.transition(itemID, ButtonApproved, false)
	return err
}

// Reject shows the rejected state and schedules the revert to Idle.
func (b *Buttons) Reject(itemID string) error {
	version, err := b.transition(itemID, ButtonRejected, false)
	if err != nil {
		return err
	}
	b.clock.AfterFunc(b.rejectDisplay, func() { b.revert(itemID, version) })
	return nil
}

// Reset restores the plain Idle view after a failed request.
func (b *Buttons) Reset(itemID string) error {
	_, err := b.transition(itemID, ButtonIdle, false)
	return err
}

func (b *Buttons) transition(itemID string, to ButtonState, retried bool) (uint64, error) {
	b.mu.Lock()
	btn, ok := b.items[itemID]
	if !ok {
		btn = &button{}
		b.items[itemID] = btn
	}
	if !canTransition(btn.state, to) {
		from := btn.state
		b.mu.Unlock()
		return 0, fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, from, to, itemID)
	}
	btn.state = to
	btn.retried = retried
	btn.version++
	version := btn.version
	view := btn.view(itemID)
	b.mu.Unlock()

	b.surface.RenderButton(view)
	return version, nil
}

// revert runs on the timer goroutine and must not touch the clock.
func (b *Buttons) revert(itemID string, version uint64) {
	b.mu.Lock()
	btn, ok := b.items[itemID]
	if !ok || btn.state != ButtonRejected || btn.version != version || !btn.view(itemID).Enabled {
		b.mu.Unlock()
		return
	}
	btn.state = ButtonIdle
	btn.retried = true
	btn.version++
	view := btn.view(itemID)
	b.mu.Unlock()

	b.surface.RenderButton(view)
}
