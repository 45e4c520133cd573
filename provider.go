package transcode

import "sync/atomic"

// Provider identifies the concrete library backing a codec implementation.
// Most of this module drives a single provider per codec (the host's
// libavcodec build), but the registry is provider-keyed so an alternate
// backend can be registered without touching call sites.
type Provider uint8

const (
	ProviderAuto      Provider = iota // let the registry pick the default
	ProviderLibavcodec                // demux/decode/encode/mux via libav*
	ProviderSoundTouch                // tempo stretching via libSoundTouch
	ProviderOpenGL                    // GPU rotation via an OpenGL context
	ProviderCopy                      // audio COPY passthrough, no codec at all
	providerCount
)

func (p Provider) String() string {
	switch p {
	case ProviderAuto:
		return "auto"
	case ProviderLibavcodec:
		return "libavcodec"
	case ProviderSoundTouch:
		return "soundtouch"
	case ProviderOpenGL:
		return "opengl"
	case ProviderCopy:
		return "copy"
	default:
		return "unknown"
	}
}

// Runtime availability, set by each binding's lazy loader (loadAVLib,
// loadGPULib, loadSoundTouchLib) the first time it loads its native library.
// ProviderCopy needs no library and is marked available at init.
var providerAvailable [providerCount]atomic.Bool

// Available reports whether this provider's native library has been loaded
// successfully so far; it is false until the binding's ensure function has
// run once.
func (p Provider) Available() bool {
	if p >= providerCount {
		return false
	}
	return providerAvailable[p].Load()
}

// setProviderAvailable marks a provider usable. Called by the binding
// loaders only after a successful Dlopen + symbol registration, and by
// audio_encoder.go's init() for ProviderCopy.
func setProviderAvailable(p Provider) {
	if p < providerCount {
		providerAvailable[p].Store(true)
	}
}
