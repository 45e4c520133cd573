package transcode

import (
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"
)

// AudioFilterKind names one stage of the §4.5 filter bank.
type AudioFilterKind int

const (
	FilterGain AudioFilterKind = iota
	FilterLowPass
	FilterHighPass
	FilterCompressor
	FilterResample
)

// AudioFilterSpec is one string-described filter graph node. Param's meaning
// depends on Kind: gain factor, one-pole cutoff coefficient in (0,1),
// compressor threshold in [0,1], or resample ratio (output rate / input
// rate).
type AudioFilterSpec struct {
	Kind  AudioFilterKind
	Param float64
}

// audioFilterBank runs a chain of simple per-sample transforms over a
// planar AudioFrame, in order, with persistent per-channel state for the
// one-pole filters. An empty bank is the identity pass-through of §4.5.
type audioFilterBank struct {
	specs    []AudioFilterSpec
	lpState  []float32
	hpState  []float32
	hpPrevIn []float32
}

func newAudioFilterBank(specs []AudioFilterSpec, channels int) *audioFilterBank {
	return &audioFilterBank{
		specs:    specs,
		lpState:  make([]float32, channels),
		hpState:  make([]float32, channels),
		hpPrevIn: make([]float32, channels),
	}
}

func (b *audioFilterBank) apply(f *AudioFrame) {
	for _, spec := range b.specs {
		switch spec.Kind {
		case FilterGain:
			applyGain(f, spec.Param)
		case FilterLowPass:
			b.applyLowPass(f, spec.Param)
		case FilterHighPass:
			b.applyHighPass(f, spec.Param)
		case FilterCompressor:
			applyCompressor(f, spec.Param)
		case FilterResample:
			applyResample(f, spec.Param)
		}
	}
}

func applyGain(f *AudioFrame, gain float64) {
	g := float32(gain)
	for _, plane := range f.Planes {
		for i, v := range plane {
			plane[i] = v * g
		}
	}
}

// applyLowPass is a one-pole IIR: y[n] = y[n-1] + alpha*(x[n]-y[n-1]).
func (b *audioFilterBank) applyLowPass(f *AudioFrame, alpha float64) {
	a := float32(alpha)
	for ch, plane := range f.Planes {
		y := b.lpState[ch]
		for i, x := range plane {
			y = y + a*(x-y)
			plane[i] = y
		}
		b.lpState[ch] = y
	}
}

// applyHighPass derives from the same one-pole state: y[n] = alpha*(y[n-1]+x[n]-x[n-1]).
func (b *audioFilterBank) applyHighPass(f *AudioFrame, alpha float64) {
	a := float32(alpha)
	for ch, plane := range f.Planes {
		y := b.hpState[ch]
		prevIn := b.hpPrevIn[ch]
		for i, x := range plane {
			y = a * (y + x - prevIn)
			prevIn = x
			plane[i] = y
		}
		b.hpState[ch] = y
		b.hpPrevIn[ch] = prevIn
	}
}

// applyCompressor soft-clamps samples whose magnitude exceeds threshold.
func applyCompressor(f *AudioFrame, threshold float64) {
	t := float32(threshold)
	for _, plane := range f.Planes {
		for i, x := range plane {
			if x > t {
				plane[i] = t + (x-t)*0.25
			} else if x < -t {
				plane[i] = -t + (x+t)*0.25
			}
		}
	}
}

// applyResample linearly interpolates each plane in place to approximate a
// rate change by ratio (output rate / input rate), keeping the plane's
// length fixed: samples past the stretched/compressed source range hold the
// last input sample rather than going silent.
func applyResample(f *AudioFrame, ratio float64) {
	if ratio <= 0 || ratio == 1.0 {
		return
	}
	for _, plane := range f.Planes {
		src := append([]float32(nil), plane...)
		n := len(src)
		if n == 0 {
			continue
		}
		for i := range plane {
			pos := float64(i) / ratio
			lo := int(math.Floor(pos))
			if lo >= n-1 {
				plane[i] = src[n-1]
				continue
			}
			if lo < 0 {
				plane[i] = src[0]
				continue
			}
			frac := float32(pos - float64(lo))
			plane[i] = src[lo] + (src[lo+1]-src[lo])*frac
		}
	}
}

// AudioProcessorConfig parameterizes the ring buffer and tempo path of
// §4.5. FrameSize and Channels come from the downstream encoder.
type AudioProcessorConfig struct {
	SpeedFactor float64
	Filters     []AudioFilterSpec
	FrameSize   int
	Channels    int
	SampleRate  int
}

// AudioProcessor implements §4.5: filter bank when speed change is
// disabled, tempo processor when enabled. Both paths feed the ring buffer,
// so every output frame is repacketized to FrameSize samples with a
// cumulative sample-count pts.
type AudioProcessor struct {
	cfg            AudioProcessorConfig
	log            *logrus.Entry
	samplesEmitted int64
}

func NewAudioProcessor(cfg AudioProcessorConfig, log *logrus.Entry) *AudioProcessor {
	return &AudioProcessor{cfg: cfg, log: log.WithField("stage", "audio_processor")}
}

func (p *AudioProcessor) Run(in *Queue[*AudioFrame], out *Queue[*AudioFrame]) error {
	defer out.Finish()

	if p.cfg.FrameSize <= 0 {
		return newErr(ErrConfigInvalid, "audio_processor", fmt.Errorf("frame_size must be > 0"))
	}
	ring := newAudioRingBuffer(p.cfg.FrameSize, p.cfg.Channels)
	bank := newAudioFilterBank(p.cfg.Filters, p.cfg.Channels)

	var tempo *tempoProcessor
	speedChange := p.cfg.SpeedFactor != 1.0
	if speedChange {
		t, err := newTempoProcessor(p.cfg.SampleRate, p.cfg.Channels, p.cfg.SpeedFactor)
		if err != nil {
			return err
		}
		tempo = t
		defer tempo.close()
	}

	scratch := make([]float32, p.cfg.FrameSize*p.cfg.Channels*4)

	for {
		frame, ok := in.Pop()
		if !ok {
			break
		}
		if frame.Channels != p.cfg.Channels {
			p.log.WithField("pts", frame.PTS).Warn("channel count mismatch, skipping frame")
			continue
		}

		if speedChange {
			interleaved := interleaveStandard(frame)
			tempo.putSamples(interleaved, frame.NumSamples)
			for {
				n := tempo.receiveSamples(scratch, len(scratch)/p.cfg.Channels)
				if n == 0 {
					break
				}
				if err := ring.write(scratch[:n*p.cfg.Channels]); err != nil {
					return newErr(ErrBufferOverflow, "audio_processor", err)
				}
				p.drainFrames(ring, out)
			}
		} else {
			bank.apply(frame)
			if err := ring.write(interleaveStandard(frame)); err != nil {
				return newErr(ErrBufferOverflow, "audio_processor", err)
			}
			p.drainFrames(ring, out)
		}
	}

	if speedChange {
		tempo.flush()
		for {
			n := tempo.receiveSamples(scratch, len(scratch)/p.cfg.Channels)
			if n == 0 {
				break
			}
			if err := ring.write(scratch[:n*p.cfg.Channels]); err != nil {
				return newErr(ErrBufferOverflow, "audio_processor", err)
			}
			p.drainFrames(ring, out)
		}
	}

	if ring.available() > 0 {
		p.emitFinalPadded(ring, out)
	}

	p.log.WithField("samples_emitted", p.samplesEmitted).Info("audio processing complete")
	return nil
}

// drainFrames repacketizes every full frame currently buffered.
func (p *AudioProcessor) drainFrames(ring *audioRingBuffer, out *Queue[*AudioFrame]) {
	frameSamples := p.cfg.FrameSize * p.cfg.Channels
	buf := make([]float32, frameSamples)
	for ring.readFrame(buf) {
		out.Push(p.toAudioFrame(buf))
		buf = make([]float32, frameSamples)
	}
}

// emitFinalPadded zero-pads the ring buffer's residual tail up to a full
// frame and emits it, per §4.5 step 5.
func (p *AudioProcessor) emitFinalPadded(ring *audioRingBuffer, out *Queue[*AudioFrame]) {
	frameSamples := p.cfg.FrameSize * p.cfg.Channels
	buf := make([]float32, frameSamples)
	n := ring.drainAll(buf)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	out.Push(p.toAudioFrame(buf))
}

func (p *AudioProcessor) toAudioFrame(interleaved []float32) *AudioFrame {
	f := NewAudioFrame(p.cfg.SampleRate, p.cfg.Channels, p.cfg.FrameSize)
	deinterleaveStandardInto(f, interleaved)
	f.PTS = p.samplesEmitted
	p.samplesEmitted += int64(p.cfg.FrameSize)
	return f
}

// interleaveStandard packs an AudioFrame's planar channels into standard
// sample-major interleaved order [c0s0,c1s0,...,c0s1,c1s1,...], the layout
// the tempo processor and ring buffer operate on. This is distinct from the
// channel-major ABI the native codec shim uses (see interleaveChannelMajor).
func interleaveStandard(f *AudioFrame) []float32 {
	out := make([]float32, f.Channels*f.NumSamples)
	for s := 0; s < f.NumSamples; s++ {
		for ch := 0; ch < f.Channels; ch++ {
			out[s*f.Channels+ch] = f.Planes[ch][s]
		}
	}
	return out
}

func deinterleaveStandardInto(f *AudioFrame, interleaved []float32) {
	for s := 0; s < f.NumSamples; s++ {
		for ch := 0; ch < f.Channels; ch++ {
			f.Planes[ch][s] = interleaved[s*f.Channels+ch]
		}
	}
}

// audioRingBuffer is the fixed-capacity circular buffer of §4.5, holding
// standard-interleaved float samples. Capacity is 4*F*C samples. Guarded by
// a mutex so the fill half and the drain half can run on different
// goroutines without a data race.
type audioRingBuffer struct {
	mu    sync.Mutex
	buf   []float32
	start int
	size  int
}

func newAudioRingBuffer(frameSize, channels int) *audioRingBuffer {
	return &audioRingBuffer{buf: make([]float32, 4*frameSize*channels)}
}

func (r *audioRingBuffer) write(samples []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.size+len(samples) > len(r.buf) {
		return fmt.Errorf("ring buffer overflow: size=%d incoming=%d capacity=%d", r.size, len(samples), len(r.buf))
	}
	for _, s := range samples {
		r.buf[(r.start+r.size)%len(r.buf)] = s
		r.size++
	}
	return nil
}

// readFrame dequeues exactly len(out) samples iff that many are available.
func (r *audioRingBuffer) readFrame(out []float32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(out)
	if r.size < n {
		return false
	}
	for i := 0; i < n; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	r.start = (r.start + n) % len(r.buf)
	r.size -= n
	return true
}

// drainAll empties whatever remains (fewer than a full frame) into out,
// returning how many samples were written.
func (r *audioRingBuffer) drainAll(out []float32) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.size
	if n > len(out) {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	r.start = (r.start + n) % len(r.buf)
	r.size -= n
	return n
}

func (r *audioRingBuffer) available() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}
