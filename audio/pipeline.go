package audio

import (
	"bytes"
	"sync"
)

// Pipeline accumulates streamed audio for one session. Two independent
// buffers: pending holds chunks since the last stop signal and is
// cleared on every transcription hand-off; archive only grows until
// disconnect and exists only for sessions that keep a full recording.
type Pipeline struct {
	mu          sync.Mutex
	pending     [][]byte
	archive     [][]byte
	keepArchive bool
}

// NewPipeline creates a pipeline. keepArchive enables the full-session
// recording buffer (interview sessions only).
func NewPipeline(keepArchive bool) *Pipeline {
	return &Pipeline{keepArchive: keepArchive}
}

// AppendChunk adds a chunk to the pending buffer and, when archiving is
// enabled, to the archive buffer. The chunk is copied so callers may
// reuse their slice.
func (p *Pipeline) AppendChunk(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	buf := make([]byte, len(chunk))
	copy(buf, chunk)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, buf)
	if p.keepArchive {
		p.archive = append(p.archive, buf)
	}
}

// TakePending concatenates and clears the pending buffer. Returns nil
// when no chunks are pending.
func (p *Pipeline) TakePending() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) == 0 {
		return nil
	}
	joined := bytes.Join(p.pending, nil)
	p.pending = nil
	return joined
}

// TakeArchive concatenates and clears the archive buffer. Returns nil
// when archiving is disabled or empty.
func (p *Pipeline) TakeArchive() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.archive) == 0 {
		return nil
	}
	joined := bytes.Join(p.archive, nil)
	p.archive = nil
	return joined
}

// PendingSize reports the total bytes currently pending transcription.
func (p *Pipeline) PendingSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	size := 0
	for _, c := range p.pending {
		size += len(c)
	}
	return size
}
