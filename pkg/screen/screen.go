// Package screen keeps a virtual terminal in step with the child's output so
// callers can ask what is currently visible rather than what was printed.
package screen

import (
	"bytes"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/vito/midterm"
)

const (
	DefaultRows = 24
	DefaultCols = 80
)

// Screen is a midterm terminal guarded by a mutex. It is safe for use from
// the PTY output pump and from readers at the same time.
type Screen struct {
	mu    sync.Mutex
	vterm *midterm.Terminal
	rows  int
	cols  int
}

// New creates a blank screen. Non-positive sizes fall back to 24x80.
func New(rows, cols int) *Screen {
	rows, cols = normalize(rows, cols)
	return &Screen{
		vterm: midterm.NewTerminal(rows, cols),
		rows:  rows,
		cols:  cols,
	}
}

func normalize(rows, cols int) (int, int) {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}
	return rows, cols
}

// Write feeds raw terminal output through the emulator.
func (s *Screen) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.vterm.Write(p)
}

// WriteString feeds a decoded chunk through the emulator.
func (s *Screen) WriteString(chunk string) (int, error) {
	return s.Write([]byte(chunk))
}

// Lines returns every row as plain text with styling removed and trailing
// blanks trimmed.
func (s *Screen) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]string, s.rows)
	var buf bytes.Buffer
	for row := range s.rows {
		buf.Reset()
		if err := s.vterm.RenderLine(&buf, row); err != nil {
			continue
		}
		lines[row] = strings.TrimRight(ansi.Strip(buf.String()), " ")
	}
	return lines
}

// Text returns the visible rows joined by newlines, without trailing empty
// rows.
func (s *Screen) Text() string {
	lines := s.Lines()
	end := len(lines)
	for end > 0 && lines[end-1] == "" {
		end--
	}
	return strings.Join(lines[:end], "\n")
}

// Contains reports whether substr appears on any single visible row.
func (s *Screen) Contains(substr string) bool {
	for _, line := range s.Lines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// Resize changes the emulated terminal size.
func (s *Screen) Resize(rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows, s.cols = normalize(rows, cols)
	s.vterm.Resize(s.rows, s.cols)
}

// Size returns the current dimensions.
func (s *Screen) Size() (rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows, s.cols
}

// Cursor returns the current cursor position.
func (s *Screen) Cursor() (row, col int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vterm.Cursor.Y, s.vterm.Cursor.X
}

// Reset clears the terminal state.
func (s *Screen) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vterm.Reset()
}
