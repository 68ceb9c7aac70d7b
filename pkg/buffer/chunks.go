package buffer

import (
	"strings"
	"sync"
)

// ChunkBuffer is a thread-safe transcript of terminal output chunks.
// Chunks are only ever appended or dropped all at once.
type ChunkBuffer struct {
	mu     sync.Mutex
	chunks []string
	bytes  int // Total length of all chunks
}

// New creates an empty chunk buffer
func New() *ChunkBuffer {
	return &ChunkBuffer{
		chunks: make([]string, 0, 64),
	}
}

// Append adds a chunk to the end of the buffer
func (b *ChunkBuffer) Append(chunk string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.chunks = append(b.chunks, chunk)
	b.bytes += len(chunk)
}

// Restart drops everything buffered so far and starts over with chunk.
// Readers never observe the empty state in between.
func (b *ChunkBuffer) Restart(chunk string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.chunks = append(make([]string, 0, 64), chunk)
	b.bytes = len(chunk)
}

// Snapshot returns a copy of the buffered chunks in arrival order
func (b *ChunkBuffer) Snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]string, len(b.chunks))
	copy(result, b.chunks)
	return result
}

// Text returns all buffered chunks concatenated
func (b *ChunkBuffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var sb strings.Builder
	sb.Grow(b.bytes)
	for _, chunk := range b.chunks {
		sb.WriteString(chunk)
	}
	return sb.String()
}

// Len returns the number of buffered chunks
func (b *ChunkBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}

// Bytes returns the combined length of the buffered chunks
func (b *ChunkBuffer) Bytes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bytes
}

// Clear empties the buffer
func (b *ChunkBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.chunks = make([]string, 0, 64)
	b.bytes = 0
}
