package gateway

import (
	"sync"

	"github.com/pion/rtp"

	"github.com/dkeye/voiceroom/internal/transport"
)

// maxSeqJump is the largest forward gap still counted as loss; larger jumps
// are treated as packets from the future.
const maxSeqJump = 1000

// seqTracker derives stream statistics from RTP sequence numbers.
type seqTracker struct {
	mu      sync.Mutex
	started bool
	next    uint16
	last    uint16
	stats   transport.MediaStats
}

// observe classifies h and reports whether its samples should be played.
func (t *seqTracker) observe(h rtp.Header) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.PacketsTotal++

	if !t.started {
		t.started = true
		t.accept(h.SequenceNumber)
		return true
	}
	diff := int16(h.SequenceNumber - t.next)
	switch {
	case diff == 0:
		t.accept(h.SequenceNumber)
		return true
	case diff > maxSeqJump:
		t.stats.PacketsArrivedTooEarly++
		return false
	case diff > 0:
		t.stats.PacketsLost += uint64(diff)
		t.accept(h.SequenceNumber)
		return true
	case h.SequenceNumber == t.last:
		t.stats.PacketsRepeated++
		return false
	default:
		t.stats.PacketsArrivedTooLate++
		return false
	}
}

func (t *seqTracker) accept(seq uint16) {
	t.stats.PacketsProcessed++
	t.last = seq
	t.next = seq + 1
}

func (t *seqTracker) invalid() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.PacketsTotal++
	t.stats.PacketsInvalid++
}

func (t *seqTracker) dropped(n uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.PacketsDropped += n
}

// sent counts an outgoing packet.
func (t *seqTracker) sent(ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.PacketsTotal++
	if ok {
		t.stats.PacketsProcessed++
	} else {
		t.stats.PacketsDropped++
	}
}

func (t *seqTracker) snapshot() transport.MediaStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}
