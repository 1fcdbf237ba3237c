package capture

import (
	"math"
	"sync"
)

// Sink receives mixed PCM frames.
type Sink interface {
	WriteFrame(frame []int16)
}

type mixerInput struct {
	name      string
	frames    [][]int16
	connected bool
}

// Mixer sums N connected sources into one destination. A frame is emitted
// once every connected source has one queued, so sources that run at the
// same real-time rate stay aligned. Sources that disconnect stop holding
// the others back.
type Mixer struct {
	mu     sync.Mutex
	inputs []*mixerInput
	out    Sink
}

// NewMixer returns a mixer writing to out.
func NewMixer(out Sink) *Mixer {
	return &Mixer{out: out}
}

// Connect adds a source and returns its id.
func (m *Mixer) Connect(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, &mixerInput{name: name, connected: true})
	return len(m.inputs) - 1
}

// Connected returns the number of sources still connected.
func (m *Mixer) Connected() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, in := range m.inputs {
		if in.connected {
			n++
		}
	}
	return n
}

// Push queues a frame from source id. The frame is copied.
func (m *Mixer) Push(id int, frame []int16) {
	if len(frame) == 0 {
		return
	}
	buf := make([]int16, len(frame))
	copy(buf, frame)

	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || id >= len(m.inputs) {
		return
	}
	m.inputs[id].frames = append(m.inputs[id].frames, buf)
	m.drain()
}

// Disconnect marks source id finished. Its queued frames are still mixed.
func (m *Mixer) Disconnect(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || id >= len(m.inputs) {
		return
	}
	m.inputs[id].connected = false
	m.drain()
	if !m.anyConnected() {
		m.flush()
	}
}

// Flush mixes and emits everything still queued.
func (m *Mixer) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flush()
}

func (m *Mixer) anyConnected() bool {
	for _, in := range m.inputs {
		if in.connected {
			return true
		}
	}
	return false
}

// drain emits while every connected input has a frame ready. Caller holds mu.
func (m *Mixer) drain() {
	for m.anyConnected() {
		for _, in := range m.inputs {
			if in.connected && len(in.frames) == 0 {
				return
			}
		}
		m.emit()
	}
}

// flush emits until nothing is queued. Caller holds mu.
func (m *Mixer) flush() {
	for {
		pending := false
		for _, in := range m.inputs {
			if len(in.frames) > 0 {
				pending = true
				break
			}
		}
		if !pending {
			return
		}
		m.emit()
	}
}

// emit pops one frame from every input that has one and writes the sum.
func (m *Mixer) emit() {
	var popped [][]int16
	for _, in := range m.inputs {
		if len(in.frames) == 0 {
			continue
		}
		popped = append(popped, in.frames[0])
		in.frames = in.frames[1:]
	}
	if len(popped) == 0 {
		return
	}
	m.out.WriteFrame(mixFrames(popped))
}

func mixFrames(frames [][]int16) []int16 {
	if len(frames) == 1 {
		return frames[0]
	}
	n := 0
	for _, f := range frames {
		n = max(n, len(f))
	}
	out := make([]int16, n)
	for i := range out {
		var sum int32
		for _, f := range frames {
			if i < len(f) {
				sum += int32(f[i])
			}
		}
		switch {
		case sum > math.MaxInt16:
			sum = math.MaxInt16
		case sum < math.MinInt16:
			sum = math.MinInt16
		}
		out[i] = int16(sum)
	}
	return out
}
