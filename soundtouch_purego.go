//go:build darwin || linux

// Purego binding to libSoundTouch's C wrapper API, the tempo processor of
// §4.5: a black-box WSOLA time-domain stretcher accepting interleaved float
// samples and emitting interleaved float samples whose count is
// approximately input_count / speed, preserving pitch. Grounded directly on
// original_source's use of the SoundTouch C++ library.
package transcode

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

var (
	stLib     uintptr
	stLibOnce sync.Once
	stLibErr  error
)

func getSoundTouchLibPaths() []string {
	var paths []string
	if p := os.Getenv("TRANSCODE_SOUNDTOUCH_PATH"); p != "" {
		paths = append(paths, p)
	}
	name := "libSoundTouch.so"
	if runtime.GOOS == "darwin" {
		name = "libSoundTouch.dylib"
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), name))
	}
	paths = append(paths, filepath.Join("/usr/local/lib", name), filepath.Join("/usr/lib", name), name)
	return paths
}

func loadSoundTouchLib() {
	for _, p := range getSoundTouchLibPaths() {
		lib, err := purego.Dlopen(p, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			stLib = lib
			registerSoundTouchFuncs()
			setProviderAvailable(ProviderSoundTouch)
			return
		}
		stLibErr = err
	}
}

func ensureSoundTouchLib() error {
	stLibOnce.Do(loadSoundTouchLib)
	if stLib == 0 {
		return fmt.Errorf("libSoundTouch not found: %w", stLibErr)
	}
	return nil
}

var (
	soundtouchCreateInstance  func() uintptr
	soundtouchDestroyInstance func(handle uintptr)
	soundtouchSetSampleRate   func(handle uintptr, rate int32)
	soundtouchSetChannels     func(handle uintptr, channels int32)
	soundtouchSetTempo        func(handle uintptr, tempo float64)
	soundtouchPutSamples      func(handle uintptr, samples uintptr, numFrames int32)
	soundtouchReceiveSamples  func(handle uintptr, out uintptr, maxFrames int32) int32
	soundtouchFlush           func(handle uintptr)
)

func registerSoundTouchFuncs() {
	purego.RegisterLibFunc(&soundtouchCreateInstance, stLib, "soundtouch_createInstance")
	purego.RegisterLibFunc(&soundtouchDestroyInstance, stLib, "soundtouch_destroyInstance")
	purego.RegisterLibFunc(&soundtouchSetSampleRate, stLib, "soundtouch_setSampleRate")
	purego.RegisterLibFunc(&soundtouchSetChannels, stLib, "soundtouch_setChannels")
	purego.RegisterLibFunc(&soundtouchSetTempo, stLib, "soundtouch_setTempo")
	purego.RegisterLibFunc(&soundtouchPutSamples, stLib, "soundtouch_putSamples")
	purego.RegisterLibFunc(&soundtouchReceiveSamples, stLib, "soundtouch_receiveSamples")
	purego.RegisterLibFunc(&soundtouchFlush, stLib, "soundtouch_flush")
}

// tempoProcessor wraps one SoundTouch instance, interleaved-sample in,
// interleaved-sample out. It is owned exclusively by the audio processor
// stage that created it.
type tempoProcessor struct {
	handle   uintptr
	channels int
}

func newTempoProcessor(sampleRate, channels int, speed float64) (*tempoProcessor, error) {
	if err := ensureSoundTouchLib(); err != nil {
		return nil, newErr(ErrCodecMissing, "audio_processor", err)
	}
	h := soundtouchCreateInstance()
	if h == 0 {
		return nil, newErr(ErrCodecInit, "audio_processor", fmt.Errorf("SoundTouch instance creation failed"))
	}
	soundtouchSetSampleRate(h, int32(sampleRate))
	soundtouchSetChannels(h, int32(channels))
	soundtouchSetTempo(h, speed)
	return &tempoProcessor{handle: h, channels: channels}, nil
}

func (t *tempoProcessor) putSamples(interleaved []float32, numFrames int) {
	soundtouchPutSamples(t.handle, bytesFloatPtr(interleaved), int32(numFrames))
}

// receiveSamples fills out (capacity in frames) and returns how many frames
// were written.
func (t *tempoProcessor) receiveSamples(out []float32, maxFrames int) int {
	n := soundtouchReceiveSamples(t.handle, bytesFloatPtr(out), int32(maxFrames))
	return int(n)
}

func (t *tempoProcessor) flush() {
	soundtouchFlush(t.handle)
}

func (t *tempoProcessor) close() {
	if t.handle != 0 {
		soundtouchDestroyInstance(t.handle)
		t.handle = 0
	}
}
