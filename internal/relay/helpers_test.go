package relay

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.UnixMilli(1_700_000_000_000)

func fixedClock() time.Time {
	return fixedNow
}

// recordingPeer keeps every frame it accepts. A closed peer refuses frames.
type recordingPeer struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func newRecordingPeer() *recordingPeer {
	return &recordingPeer{}
}

func (p *recordingPeer) Send(frame []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	p.frames = append(p.frames, frame)
	return true
}

func (p *recordingPeer) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *recordingPeer) notices(t *testing.T) []Notice {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()

	notices := make([]Notice, 0, len(p.frames))
	for _, frame := range p.frames {
		var n Notice
		require.NoError(t, json.Unmarshal(frame, &n))
		notices = append(notices, n)
	}
	return notices
}

func (p *recordingPeer) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = nil
}
