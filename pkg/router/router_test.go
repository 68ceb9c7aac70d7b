package router

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
)

// fakeInjector records what the router sends.
type fakeInjector struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (f *fakeInjector) SendInput(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, "input:"+text)
	return nil
}

func (f *fakeInjector) SendKey(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, "key:"+name)
	return nil
}

func (f *fakeInjector) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.events)
}

// fakeView pretends to be a screen showing text.
type fakeView struct {
	mu   sync.Mutex
	text string
}

func (v *fakeView) Show(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.text = text
}

func (v *fakeView) Contains(substr string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return strings.Contains(v.text, substr)
}

func newTestRouter(view *fakeView) (*Router, *fakeInjector) {
	inj := &fakeInjector{}
	r := New(inj, view, Options{
		SubmitDelay: time.Millisecond,
		Logger:      slog.New(slog.DiscardHandler),
	})
	return r, inj
}

func TestNew_Defaults(t *testing.T) {
	r := New(&fakeInjector{}, &fakeView{}, Options{SubmitDelay: -time.Second})

	if r.State() != StateTextInput {
		t.Errorf("initial State() = %v, want %v", r.State(), StateTextInput)
	}
	if r.opts.ChoiceMarker != DefaultChoiceMarker {
		t.Errorf("ChoiceMarker = %q, want %q", r.opts.ChoiceMarker, DefaultChoiceMarker)
	}
	if r.opts.SubmitDelay != 0 {
		t.Errorf("SubmitDelay = %v, want 0", r.opts.SubmitDelay)
	}
}

func TestRefresh(t *testing.T) {
	view := &fakeView{}
	r, _ := newTestRouter(view)

	view.Show("Do you want to proceed?\n❯ 1. Yes\n  2. No")
	if got := r.Refresh(); got != StateChoiceInput {
		t.Errorf("Refresh() with marker = %v, want %v", got, StateChoiceInput)
	}
	if r.State() != StateChoiceInput {
		t.Errorf("State() = %v, want %v", r.State(), StateChoiceInput)
	}

	view.Show("> ")
	if got := r.Refresh(); got != StateTextInput {
		t.Errorf("Refresh() without marker = %v, want %v", got, StateTextInput)
	}
}

func TestRefresh_CustomMarker(t *testing.T) {
	view := &fakeView{text: "[?] continue"}
	r := New(&fakeInjector{}, view, Options{ChoiceMarker: "[?]", Logger: slog.New(slog.DiscardHandler)})

	if got := r.Refresh(); got != StateChoiceInput {
		t.Errorf("Refresh() = %v, want %v", got, StateChoiceInput)
	}
}

func TestProcessInstruction(t *testing.T) {
	tests := []struct {
		name       string
		screen     string
		text       string
		wantAction Action
		wantErr    error
		wantEvents []string
	}{
		{
			name:       "text input submits",
			screen:     "> ",
			text:       "list the files",
			wantAction: ActionSubmitted,
			wantEvents: []string{"input:list the files", "key:enter"},
		},
		{
			name:       "text input submits yes literally",
			screen:     "> ",
			text:       "yes please",
			wantAction: ActionSubmitted,
			wantEvents: []string{"input:yes please", "key:enter"},
		},
		{
			name:       "choice yes confirms",
			screen:     "❯ 1. Yes",
			text:       "Yes, do it",
			wantAction: ActionConfirmed,
			wantEvents: []string{"key:enter"},
		},
		{
			name:       "choice no declines",
			screen:     "❯ 1. Yes",
			text:       "NO thanks",
			wantAction: ActionDeclined,
			wantEvents: []string{"key:esc"},
		},
		{
			name:       "choice yes wins over no",
			screen:     "❯ 1. Yes",
			text:       "no wait, yes",
			wantAction: ActionConfirmed,
			wantEvents: []string{"key:enter"},
		},
		{
			name:       "choice substring match",
			screen:     "❯ 1. Yes",
			text:       "I don't know",
			wantAction: ActionDeclined,
			wantEvents: []string{"key:esc"},
		},
		{
			name:       "choice unrecognized is dropped",
			screen:     "❯ 1. Yes",
			text:       "maybe later",
			wantAction: ActionIgnored,
			wantErr:    ErrUnrecognizedChoice,
		},
		{
			name:       "blank is ignored",
			screen:     "> ",
			text:       "  \t ",
			wantAction: ActionIgnored,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := &fakeView{text: tt.screen}
			r, inj := newTestRouter(view)
			r.Refresh()

			action, err := r.ProcessInstruction(context.Background(), tt.text)
			if action != tt.wantAction {
				t.Errorf("action = %v, want %v", action, tt.wantAction)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if got := inj.Events(); !slices.Equal(got, tt.wantEvents) {
				t.Errorf("events = %q, want %q", got, tt.wantEvents)
			}
		})
	}
}

func TestProcessInstruction_InjectorError(t *testing.T) {
	sendErr := errors.New("not running")
	view := &fakeView{}
	r, inj := newTestRouter(view)
	inj.err = sendErr

	action, err := r.ProcessInstruction(context.Background(), "hello")
	if action != ActionIgnored {
		t.Errorf("action = %v, want %v", action, ActionIgnored)
	}
	if !errors.Is(err, sendErr) {
		t.Errorf("error = %v, want wrapped %v", err, sendErr)
	}

	view.Show("❯")
	r.Refresh()
	if _, err := r.ProcessInstruction(context.Background(), "yes"); !errors.Is(err, sendErr) {
		t.Errorf("confirm error = %v, want wrapped %v", err, sendErr)
	}
}

func TestProcessInstruction_CancelledBeforeSubmit(t *testing.T) {
	inj := &fakeInjector{}
	r := New(inj, &fakeView{}, Options{
		SubmitDelay: time.Minute,
		Logger:      slog.New(slog.DiscardHandler),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	action, err := r.ProcessInstruction(ctx, "hello")
	if action != ActionIgnored {
		t.Errorf("action = %v, want %v", action, ActionIgnored)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
	if got := inj.Events(); !slices.Equal(got, []string{"input:hello"}) {
		t.Errorf("events = %q, want only the typed text", got)
	}
}

func TestProcessInstruction_AlreadyCancelled(t *testing.T) {
	r, inj := newTestRouter(&fakeView{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.ProcessInstruction(ctx, "hello"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(inj.Events()) != 0 {
		t.Errorf("expected nothing sent, got %q", inj.Events())
	}
}

func TestProcessInstruction_Serialized(t *testing.T) {
	r, inj := newTestRouter(&fakeView{})

	var wg sync.WaitGroup
	for _, text := range []string{"one", "two", "three", "four"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.ProcessInstruction(context.Background(), text); err != nil {
				t.Errorf("ProcessInstruction(%q) failed: %v", text, err)
			}
		}()
	}
	wg.Wait()

	events := inj.Events()
	if len(events) != 8 {
		t.Fatalf("expected 8 events, got %d: %q", len(events), events)
	}
	for i := 0; i < len(events); i += 2 {
		if !strings.HasPrefix(events[i], "input:") || events[i+1] != "key:enter" {
			t.Errorf("events %d-%d = %q, want input followed by enter", i, i+1, events[i:i+2])
		}
	}
}

func TestRouter_History(t *testing.T) {
	view := &fakeView{}
	r, _ := newTestRouter(view)

	r.ProcessInstruction(context.Background(), "first")
	view.Show("❯")
	r.Refresh()
	r.ProcessInstruction(context.Background(), "perhaps")
	r.ProcessInstruction(context.Background(), "yes")

	history := r.History()
	if len(history) != 3 {
		t.Fatalf("expected 3 records, got %d", len(history))
	}
	if history[0].Text != "first" || history[0].State != StateTextInput || history[0].Action != ActionSubmitted {
		t.Errorf("record 0 = %+v", history[0])
	}
	if !errors.Is(history[1].Err, ErrUnrecognizedChoice) {
		t.Errorf("record 1 error = %v, want ErrUnrecognizedChoice", history[1].Err)
	}
	if history[2].Action != ActionConfirmed || history[2].State != StateChoiceInput {
		t.Errorf("record 2 = %+v", history[2])
	}
	if history[2].Time.IsZero() {
		t.Error("expected record time to be set")
	}

	last := r.LastN(1)
	if len(last) != 1 || last[0].Text != "yes" {
		t.Errorf("LastN(1) = %+v", last)
	}
}

func TestStateAndActionStrings(t *testing.T) {
	if StateChoiceInput.String() != "choice_input" || StateTextInput.String() != "text_input" {
		t.Error("unexpected State strings")
	}
	if ActionDeclined.String() != "declined" || Action(42).String() != "Action(42)" {
		t.Error("unexpected Action strings")
	}
}

func TestPreview(t *testing.T) {
	if got := preview("  spaced \n out  "); got != "spaced out" {
		t.Errorf("preview() = %q, want %q", got, "spaced out")
	}

	long := strings.Repeat("界", 100)
	got := preview(long)
	if w := runewidth.StringWidth(got); w > previewWidth {
		t.Errorf("preview width = %d, want <= %d", w, previewWidth)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected truncated preview to end with ellipsis, got %q", got)
	}
}
