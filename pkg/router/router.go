// Package router turns spoken instructions into keystrokes for an
// interactive assistant running under a PTY controller. Free text is typed
// and submitted; while the assistant shows a choice prompt, only yes/no
// answers are acted on.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

const (
	DefaultChoiceMarker = "❯"
	DefaultSubmitDelay  = 100 * time.Millisecond

	previewWidth = 60
)

// Injector is the part of the PTY controller the router drives.
type Injector interface {
	SendInput(text string) error
	SendKey(name string) error
}

// View reports what the child currently shows.
type View interface {
	Contains(substr string) bool
}

// State is the kind of input the child is waiting for.
type State int

const (
	StateTextInput State = iota
	StateChoiceInput
)

func (s State) String() string {
	switch s {
	case StateTextInput:
		return "text_input"
	case StateChoiceInput:
		return "choice_input"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Action is what the router did with an instruction.
type Action int

const (
	ActionIgnored Action = iota
	ActionSubmitted
	ActionConfirmed
	ActionDeclined
)

func (a Action) String() string {
	switch a {
	case ActionIgnored:
		return "ignored"
	case ActionSubmitted:
		return "submitted"
	case ActionConfirmed:
		return "confirmed"
	case ActionDeclined:
		return "declined"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Options configures a Router.
type Options struct {
	// ChoiceMarker on screen means the child is showing a choice prompt.
	ChoiceMarker string

	// SubmitDelay separates typing the text from pressing enter.
	SubmitDelay time.Duration

	HistorySize int
	Logger      *slog.Logger
}

// Router routes instructions according to the child's input state.
type Router struct {
	inj     Injector
	view    View
	opts    Options
	logger  *slog.Logger
	history *History

	stateMu sync.RWMutex
	state   State

	// procMu keeps one instruction's keystrokes from interleaving with another's
	procMu sync.Mutex
}

// New creates a router in the text input state. A negative SubmitDelay is
// treated as zero.
func New(inj Injector, view View, opts Options) *Router {
	if opts.ChoiceMarker == "" {
		opts.ChoiceMarker = DefaultChoiceMarker
	}
	if opts.SubmitDelay < 0 {
		opts.SubmitDelay = 0
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Router{
		inj:     inj,
		view:    view,
		opts:    opts,
		logger:  opts.Logger.With("component", "router"),
		history: NewHistory(opts.HistorySize),
		state:   StateTextInput,
	}
}

// State returns the last evaluated input state.
func (r *Router) State() State {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.state
}

// Refresh re-evaluates the input state from the view and returns it.
// It is meant to run after every output change.
func (r *Router) Refresh() State {
	next := StateTextInput
	if r.view.Contains(r.opts.ChoiceMarker) {
		next = StateChoiceInput
	}

	r.stateMu.Lock()
	prev := r.state
	r.state = next
	r.stateMu.Unlock()

	if prev != next {
		r.logger.Info("input state changed", "from", prev, "to", next)
	}
	return next
}

// ProcessInstruction acts on one instruction in the current state.
func (r *Router) ProcessInstruction(ctx context.Context, text string) (Action, error) {
	r.procMu.Lock()
	defer r.procMu.Unlock()

	state := r.State()
	action, err := r.route(ctx, state, text)

	r.history.Add(Record{
		Text:   text,
		State:  state,
		Action: action,
		Err:    err,
		Time:   time.Now(),
	})

	attrs := []any{"instruction", preview(text), "state", state, "action", action}
	if err != nil {
		r.logger.Warn("instruction not applied", append(attrs, "error", err)...)
	} else {
		r.logger.Info("instruction processed", attrs...)
	}
	return action, err
}

func (r *Router) route(ctx context.Context, state State, text string) (Action, error) {
	if strings.TrimSpace(text) == "" {
		return ActionIgnored, nil
	}
	if err := ctx.Err(); err != nil {
		return ActionIgnored, err
	}

	if state == StateTextInput {
		return r.submit(ctx, text)
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "yes"):
		if err := r.inj.SendKey("enter"); err != nil {
			return ActionIgnored, fmt.Errorf("confirm choice: %w", err)
		}
		return ActionConfirmed, nil
	case strings.Contains(lower, "no"):
		if err := r.inj.SendKey("esc"); err != nil {
			return ActionIgnored, fmt.Errorf("decline choice: %w", err)
		}
		return ActionDeclined, nil
	default:
		return ActionIgnored, ErrUnrecognizedChoice
	}
}

// submit types text, waits SubmitDelay, and presses enter.
func (r *Router) submit(ctx context.Context, text string) (Action, error) {
	if err := r.inj.SendInput(text); err != nil {
		return ActionIgnored, fmt.Errorf("type instruction: %w", err)
	}

	if r.opts.SubmitDelay > 0 {
		timer := time.NewTimer(r.opts.SubmitDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ActionIgnored, fmt.Errorf("submit interrupted: %w", ctx.Err())
		}
	}

	if err := r.inj.SendKey("enter"); err != nil {
		return ActionIgnored, fmt.Errorf("submit instruction: %w", err)
	}
	return ActionSubmitted, nil
}

// History returns every recorded instruction, oldest first.
func (r *Router) History() []Record {
	return r.history.All()
}

// LastN returns the last n recorded instructions, oldest first.
func (r *Router) LastN(n int) []Record {
	return r.history.LastN(n)
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	return runewidth.Truncate(text, previewWidth, "…")
}
