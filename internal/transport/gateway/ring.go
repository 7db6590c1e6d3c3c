package gateway

import "sync"

// sampleRing is a fixed size FIFO of decoded samples. When full, the oldest
// samples are overwritten.
type sampleRing struct {
	mutex sync.Mutex

	samples  []float32
	offset   int
	length   int
	capacity int
}

func newSampleRing(capacity int) *sampleRing {
	return &sampleRing{
		samples:  make([]float32, capacity),
		capacity: capacity,
	}
}

// write appends p and returns how many older samples were overwritten.
func (r *sampleRing) write(p []float32) (overwritten int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if len(p) > r.capacity {
		overwritten = len(p) - r.capacity
		p = p[overwritten:]
	}
	if free := r.capacity - r.length; len(p) > free {
		drop := len(p) - free
		r.offset = (r.offset + drop) % r.capacity
		r.length -= drop
		overwritten += drop
	}
	end := (r.offset + r.length) % r.capacity
	n := copy(r.samples[end:], p)
	copy(r.samples, p[n:])
	r.length += len(p)
	return overwritten
}

// read moves up to len(out) samples into out.
func (r *sampleRing) read(out []float32) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	n := min(len(out), r.length)
	first := min(n, r.capacity-r.offset)
	copy(out, r.samples[r.offset:r.offset+first])
	copy(out[first:n], r.samples)
	r.offset = (r.offset + n) % r.capacity
	r.length -= n
	return n
}

func (r *sampleRing) len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.length
}
