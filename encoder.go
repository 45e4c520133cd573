package transcode

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

var (
	ErrProviderNotFound  = errors.New("provider not available")
	ErrCodecNotSupported = errors.New("codec not supported by any registered provider")
	ErrFrameSizeMismatch = errors.New("frame sample count does not match encoder's required frame size")
	ErrFrameDimsMismatch = errors.New("frame dimensions do not match encoder configuration")
)

// VideoEncoderConfig configures a VideoEncoder.
type VideoEncoderConfig struct {
	Codec      VideoCodec
	Provider   Provider
	Width      int
	Height     int
	FPS        int
	BitrateBps int
	GopSize    int
	MaxBFrames int
}

// VideoEncoder turns decoded, processed video frames into EncodedPacket
// units. initialize/encode/flush/name/codec_id of §4.6 correspond to the
// constructor, Encode, Flush, and Codec below; every encoder owns its codec
// context directly, with no shared base class.
type VideoEncoder interface {
	io.Closer

	// Encode accepts a planar 8-bit YUV frame at the configured width x
	// height; frames of any other size are rejected with
	// ErrFrameDimsMismatch, matching §4.6. Returns the packets the codec
	// produced for this input (zero, one, or more).
	Encode(frame *VideoFrame) ([]*EncodedPacket, error)

	// Flush drains any frames buffered inside the codec after a nil-frame
	// submission, matching the null "flush" submission of §4.6.
	Flush() ([]*EncodedPacket, error)

	Provider() Provider
	Codec() VideoCodec
	Config() VideoEncoderConfig
}

// AudioEncoderConfig configures an AudioEncoder.
type AudioEncoderConfig struct {
	Codec      AudioCodec
	Provider   Provider
	SampleRate int
	Channels   int
	BitrateBps int
}

// AudioEncoder is the capability set of §4.6: initialize (the constructor),
// encode, flush, name, codec_id.
type AudioEncoder interface {
	io.Closer

	// Encode rejects frames whose NumSamples differs from FrameSize with
	// ErrFrameSizeMismatch.
	Encode(frame *AudioFrame) ([]*EncodedPacket, error)
	Flush() ([]*EncodedPacket, error)

	Name() string
	CodecID() AudioCodec
	// FrameSize is F, the required sample count per channel per frame.
	FrameSize() int
	Provider() Provider
}

type videoEncoderFactory func(VideoEncoderConfig) (VideoEncoder, error)
type audioEncoderFactory func(AudioEncoderConfig) (AudioEncoder, error)

type encoderRegistry struct {
	mu sync.RWMutex

	videoProviders map[VideoCodec]map[Provider]videoEncoderFactory
	audioProviders map[AudioCodec]map[Provider]audioEncoderFactory

	videoDefaults map[VideoCodec]Provider
	audioDefaults map[AudioCodec]Provider
}

var globalEncoderRegistry = &encoderRegistry{
	videoProviders: make(map[VideoCodec]map[Provider]videoEncoderFactory),
	audioProviders: make(map[AudioCodec]map[Provider]audioEncoderFactory),
	videoDefaults:  make(map[VideoCodec]Provider),
	audioDefaults:  make(map[AudioCodec]Provider),
}

func registerVideoEncoder(codec VideoCodec, provider Provider, factory videoEncoderFactory) {
	globalEncoderRegistry.mu.Lock()
	defer globalEncoderRegistry.mu.Unlock()
	if globalEncoderRegistry.videoProviders[codec] == nil {
		globalEncoderRegistry.videoProviders[codec] = make(map[Provider]videoEncoderFactory)
	}
	globalEncoderRegistry.videoProviders[codec][provider] = factory
	if _, exists := globalEncoderRegistry.videoDefaults[codec]; !exists {
		globalEncoderRegistry.videoDefaults[codec] = provider
	}
}

func registerAudioEncoder(codec AudioCodec, provider Provider, factory audioEncoderFactory) {
	globalEncoderRegistry.mu.Lock()
	defer globalEncoderRegistry.mu.Unlock()
	if globalEncoderRegistry.audioProviders[codec] == nil {
		globalEncoderRegistry.audioProviders[codec] = make(map[Provider]audioEncoderFactory)
	}
	globalEncoderRegistry.audioProviders[codec][provider] = factory
	if _, exists := globalEncoderRegistry.audioDefaults[codec]; !exists {
		globalEncoderRegistry.audioDefaults[codec] = provider
	}
}

// NewVideoEncoder creates a video encoder for config.Codec, resolving
// ProviderAuto to the codec's registered default.
func NewVideoEncoder(config VideoEncoderConfig) (VideoEncoder, error) {
	globalEncoderRegistry.mu.RLock()
	defer globalEncoderRegistry.mu.RUnlock()

	providers := globalEncoderRegistry.videoProviders[config.Codec]
	if providers == nil {
		return nil, fmt.Errorf("%w: %s", ErrCodecNotSupported, config.Codec)
	}
	p := config.Provider
	if p == ProviderAuto {
		p = globalEncoderRegistry.videoDefaults[config.Codec]
	}
	factory, ok := providers[p]
	if !ok || !p.Available() {
		return nil, fmt.Errorf("%w: %s for %s", ErrProviderNotFound, p, config.Codec)
	}
	return factory(config)
}

// NewAudioEncoder creates an audio encoder via the factory of §4.6, selecting
// the concrete variant from config.Codec's registered provider.
func NewAudioEncoder(config AudioEncoderConfig) (AudioEncoder, error) {
	globalEncoderRegistry.mu.RLock()
	defer globalEncoderRegistry.mu.RUnlock()

	providers := globalEncoderRegistry.audioProviders[config.Codec]
	if providers == nil {
		return nil, fmt.Errorf("%w: %s", ErrCodecNotSupported, config.Codec)
	}
	p := config.Provider
	if p == ProviderAuto {
		p = globalEncoderRegistry.audioDefaults[config.Codec]
	}
	factory, ok := providers[p]
	if !ok || !p.Available() {
		return nil, fmt.Errorf("%w: %s for %s", ErrProviderNotFound, p, config.Codec)
	}
	return factory(config)
}
