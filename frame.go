// Media unit types shared by every pipeline stage.
package transcode

// StreamKind distinguishes the two media types the pipeline carries.
type StreamKind int

const (
	StreamVideo StreamKind = iota
	StreamAudio
)

func (k StreamKind) String() string {
	switch k {
	case StreamVideo:
		return "video"
	case StreamAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// CompressedPacket is one codec-level unit read from the container: one
// access unit for video, one frame for audio. Produced by the demuxer,
// freed by the matching decoder after submission.
type CompressedPacket struct {
	Kind     StreamKind
	Data     []byte
	PTS      int64
	DTS      int64
	Duration int64
	KeyFrame bool
}

// Clone returns a deep copy, safe to retain beyond the original's lifetime.
func (p *CompressedPacket) Clone() *CompressedPacket {
	c := *p
	if p.Data != nil {
		c.Data = make([]byte, len(p.Data))
		copy(c.Data, p.Data)
	}
	return &c
}

// PixelFormat names a planar video layout. The video processor treats every
// layout other than I420 as opaque to its CPU filters (pass-through).
type PixelFormat int

const (
	PixelFormatI420   PixelFormat = iota // YUV 4:2:0 planar, 8-bit
	PixelFormatRGB24                     // packed RGB, 3 bytes/pixel; used only as the GPU rotation intermediate
)

func (p PixelFormat) String() string {
	switch p {
	case PixelFormatI420:
		return "I420"
	case PixelFormatRGB24:
		return "RGB24"
	default:
		return "unknown"
	}
}

// PlaneCount returns the number of planes carried by Data for this format.
func (p PixelFormat) PlaneCount() int {
	switch p {
	case PixelFormatI420:
		return 3
	case PixelFormatRGB24:
		return 1
	default:
		return 0
	}
}

// VideoFrame is one decoded raster: planar Y/U/V (or a single packed plane
// for the RGB24 intermediate used internally by rotation), with its own
// stride per plane so planes need not be tightly packed.
type VideoFrame struct {
	Data   [][]byte
	Stride []int
	Width  int
	Height int
	Format PixelFormat
	PTS    int64
	DTS    int64
	Dur    int64
}

// Clone deep-copies a video frame, including plane contents.
func (f *VideoFrame) Clone() *VideoFrame {
	c := &VideoFrame{
		Data:   make([][]byte, len(f.Data)),
		Stride: append([]int(nil), f.Stride...),
		Width:  f.Width,
		Height: f.Height,
		Format: f.Format,
		PTS:    f.PTS,
		DTS:    f.DTS,
		Dur:    f.Dur,
	}
	for i, plane := range f.Data {
		if plane != nil {
			c.Data[i] = append([]byte(nil), plane...)
		}
	}
	return c
}

// NewI420Frame allocates a tightly-packed I420 frame of the given size.
func NewI420Frame(width, height int) *VideoFrame {
	cw, ch := width/2, height/2
	return &VideoFrame{
		Data:   [][]byte{make([]byte, width*height), make([]byte, cw*ch), make([]byte, cw*ch)},
		Stride: []int{width, cw, cw},
		Width:  width,
		Height: height,
		Format: PixelFormatI420,
	}
}

// I420Size returns the total byte count of a tightly-packed I420 frame.
func I420Size(width, height int) int {
	ySize := width * height
	uvSize := (width / 2) * (height / 2)
	return ySize + 2*uvSize
}

// AudioFrame is one decoded block of planar float PCM samples, one slice per
// channel, all the same length (NumSamples).
type AudioFrame struct {
	Planes      [][]float32
	SampleRate  int
	Channels    int
	NumSamples  int
	PTS         int64
	Dur         int64
}

// Clone deep-copies an audio frame, including sample contents.
func (a *AudioFrame) Clone() *AudioFrame {
	c := &AudioFrame{
		Planes:     make([][]float32, len(a.Planes)),
		SampleRate: a.SampleRate,
		Channels:   a.Channels,
		NumSamples: a.NumSamples,
		PTS:        a.PTS,
		Dur:        a.Dur,
	}
	for i, p := range a.Planes {
		c.Planes[i] = append([]float32(nil), p...)
	}
	return c
}

// NewAudioFrame allocates a planar float audio frame of the given shape.
func NewAudioFrame(sampleRate, channels, numSamples int) *AudioFrame {
	planes := make([][]float32, channels)
	for i := range planes {
		planes[i] = make([]float32, numSamples)
	}
	return &AudioFrame{Planes: planes, SampleRate: sampleRate, Channels: channels, NumSamples: numSamples}
}

// EncodedPacket is one encoder-output unit, consumed and freed by the muxer.
type EncodedPacket struct {
	Kind     StreamKind
	Data     []byte
	PTS      int64
	DTS      int64
	Duration int64
	KeyFrame bool
}

// Clone deep-copies an encoded packet.
func (p *EncodedPacket) Clone() *EncodedPacket {
	c := *p
	if p.Data != nil {
		c.Data = make([]byte, len(p.Data))
		copy(c.Data, p.Data)
	}
	return &c
}
