package capture

import (
	"errors"
	"io"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bytesPerSample = 2  // LINEAR16
	bitsPerSample  = 16 // LINEAR16
	pcmFormatTag   = 1  // WAV PCM
	wavHeaderSize  = 44
)

// MinArtifactSize is the smallest artifact accepted for processing. Anything
// below it is a near-zero-length recording.
const MinArtifactSize = 1000

// Container identifies how an artifact is encoded.
type Container struct {
	MIMEType  string
	Extension string
}

var (
	// ContainerWAV is what Recorder produces.
	ContainerWAV = Container{MIMEType: "audio/wav", Extension: ".wav"}
	// ContainerWebM is for platforms that hand over pre-encoded Opus/WebM.
	ContainerWebM = Container{MIMEType: "audio/webm", Extension: ".webm"}
)

// Artifact is a finished recording.
type Artifact struct {
	Data []byte
	Container
}

// Size returns the artifact length in bytes.
func (a Artifact) Size() int { return len(a.Data) }

// Recorder encodes mixed frames into an in-memory WAV file.
type Recorder struct {
	mu     sync.Mutex
	format Format
	out    *memFile
	enc    *wav.Encoder
	buf    *audio.IntBuffer
	size   int
}

// NewRecorder creates a recorder for the given format.
func NewRecorder(format Format) *Recorder {
	r := &Recorder{format: format}
	r.reset()
	return r
}

func (r *Recorder) reset() {
	r.out = &memFile{}
	r.enc = wav.NewEncoder(r.out, r.format.SampleRate, bitsPerSample, 1, pcmFormatTag)
	r.buf = &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: r.format.SampleRate},
		SourceBitDepth: bitsPerSample,
	}
	r.size = 0
}

// WriteFrame appends a mixed frame as LINEAR16 samples.
func (r *Recorder) WriteFrame(frame []int16) {
	if len(frame) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if cap(r.buf.Data) < len(frame) {
		r.buf.Data = make([]int, len(frame))
	}
	r.buf.Data = r.buf.Data[:len(frame)]
	for i, s := range frame {
		r.buf.Data[i] = int(s)
	}
	// memFile never fails a write.
	_ = r.enc.Write(r.buf)
	r.size += len(frame) * bytesPerSample
}

// Buffered returns the number of PCM bytes buffered so far.
func (r *Recorder) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Finish closes the WAV file, returns it as an artifact and starts a fresh
// one. A recorder that never received audio yields an empty artifact.
func (r *Recorder) Finish() Artifact {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.reset()

	if r.size == 0 {
		return Artifact{Container: ContainerWAV}
	}
	// Close rewrites the RIFF and data sizes in the header.
	_ = r.enc.Close()
	return Artifact{Data: r.out.data, Container: ContainerWAV}
}

// memFile is an in-memory io.WriteSeeker.
type memFile struct {
	data []byte
	pos  int
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.data) {
		m.data = append(m.data, make([]byte, end-len(m.data))...)
	}
	copy(m.data[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(m.pos)
	case io.SeekEnd:
		base = int64(len(m.data))
	default:
		return 0, errors.New("memfile: invalid whence")
	}
	n := base + offset
	if n < 0 {
		return 0, errors.New("memfile: negative position")
	}
	m.pos = int(n)
	return n, nil
}
