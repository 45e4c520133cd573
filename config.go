package transcode

import "fmt"

// TargetAudioFormat selects the audio encoder variant the factory builds.
type TargetAudioFormat int

const (
	AudioTargetAC3 TargetAudioFormat = iota
	AudioTargetAAC
	AudioTargetMP3
	AudioTargetCopy
)

func (f TargetAudioFormat) String() string {
	switch f {
	case AudioTargetAC3:
		return "AC3"
	case AudioTargetAAC:
		return "AAC"
	case AudioTargetMP3:
		return "MP3"
	case AudioTargetCopy:
		return "COPY"
	default:
		return "unknown"
	}
}

// QueueCapacities overrides the default per-stage queue bounds. Zero fields
// fall back to the defaults in DefaultConfig.
type QueueCapacities struct {
	VideoPacket int
	AudioPacket int
	VideoFrame  int
	AudioFrame  int
	VideoPacketOut int
	AudioPacketOut int
}

// Config is the sole input to Transcode.
type Config struct {
	InputPath  string
	OutputPath string

	// OutputFormat names the output container (e.g. "mp4"); empty means
	// "match the input format".
	OutputFormat string

	// MaxVideoFrames caps the number of video packets the demuxer will
	// dispatch; 0 means unlimited.
	MaxVideoFrames int

	// SpeedFactor is in [0.1, 5.0]; 1.0 disables the speed transform. A zero
	// value is treated as unset and replaced by 1.0 in Validate.
	SpeedFactor float64

	// RotationDegrees is any real angle; 0 disables rotation.
	RotationDegrees float64

	EnableBlur      bool
	EnableSharpen   bool
	EnableGrayscale bool

	// Brightness and Contrast are in [0.0, 2.0]; 1.0 is identity. A zero
	// value is treated as unset and replaced by 1.0 in Validate, so 0.0
	// itself is never applied.
	Brightness float64
	Contrast   float64

	TargetAudioFormat TargetAudioFormat

	// VideoBitrate/AudioBitrate are in bits per second. Zero defaults from
	// the probed StreamInfo (see pipeline.go).
	VideoBitrate int
	AudioBitrate int

	QueueCapacities QueueCapacities
}

// DefaultConfig returns a Config with every optional field at its identity
// value: speed 1.0, no rotation, no filters, brightness/contrast 1.0,
// AC3 audio, no frame ceiling, and the queue capacity guidance from §5
// (16-64 frames per video queue, 64-256 per audio/packet queue).
func DefaultConfig(inputPath, outputPath string) Config {
	return Config{
		InputPath:         inputPath,
		OutputPath:        outputPath,
		SpeedFactor:       1.0,
		Brightness:        1.0,
		Contrast:          1.0,
		TargetAudioFormat: AudioTargetAC3,
		QueueCapacities: QueueCapacities{
			VideoPacket:    128,
			AudioPacket:    256,
			VideoFrame:     32,
			AudioFrame:     128,
			VideoPacketOut: 128,
			AudioPacketOut: 256,
		},
	}
}

// Validate checks every constrained field and returns a *TranscodeError with
// Kind ErrConfigInvalid on the first violation found. Called once, before
// any queue or goroutine is created; no stage starts on failure.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return newErr(ErrConfigInvalid, "config", fmt.Errorf("input_path is required"))
	}
	if c.OutputPath == "" {
		return newErr(ErrConfigInvalid, "config", fmt.Errorf("output_path is required"))
	}
	if c.SpeedFactor == 0 {
		c.SpeedFactor = 1.0
	}
	if c.SpeedFactor < 0.1 || c.SpeedFactor > 5.0 {
		return newErr(ErrConfigInvalid, "config", fmt.Errorf("speed_factor %.3f outside [0.1, 5.0]", c.SpeedFactor))
	}
	if c.Brightness == 0 {
		c.Brightness = 1.0
	}
	if c.Contrast == 0 {
		c.Contrast = 1.0
	}
	if c.Brightness < 0.0 || c.Brightness > 2.0 {
		return newErr(ErrConfigInvalid, "config", fmt.Errorf("brightness %.3f outside [0.0, 2.0]", c.Brightness))
	}
	if c.Contrast < 0.0 || c.Contrast > 2.0 {
		return newErr(ErrConfigInvalid, "config", fmt.Errorf("contrast %.3f outside [0.0, 2.0]", c.Contrast))
	}
	if c.MaxVideoFrames < 0 {
		return newErr(ErrConfigInvalid, "config", fmt.Errorf("max_video_frames must be >= 0"))
	}
	switch c.TargetAudioFormat {
	case AudioTargetAC3, AudioTargetAAC, AudioTargetMP3, AudioTargetCopy:
	default:
		return newErr(ErrConfigInvalid, "config", fmt.Errorf("unknown target_audio_format %d", c.TargetAudioFormat))
	}
	qc := &c.QueueCapacities
	if qc.VideoPacket <= 0 {
		qc.VideoPacket = 128
	}
	if qc.AudioPacket <= 0 {
		qc.AudioPacket = 256
	}
	if qc.VideoFrame <= 0 {
		qc.VideoFrame = 32
	}
	if qc.AudioFrame <= 0 {
		qc.AudioFrame = 128
	}
	if qc.VideoPacketOut <= 0 {
		qc.VideoPacketOut = 128
	}
	if qc.AudioPacketOut <= 0 {
		qc.AudioPacketOut = 256
	}
	return nil
}
