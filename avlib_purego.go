//go:build darwin || linux

// Purego binding to libtranscode_av, a small flat-C-ABI shim around the
// host's libavformat/libavcodec/libswscale installation. The shim hides
// AVFormatContext/AVCodecContext/AVPacket/AVFrame layout behind opaque
// handles and primitive-typed functions, the same boundary shape every
// codec binding in this module uses (see soundtouch_purego.go, gpu_purego.go):
// purego binds cleanly to flat C ABIs and opaque handles, not to structs
// whose memory layout varies by library build and version.
package transcode

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	avLib     uintptr
	avLibOnce sync.Once
	avLibErr  error
)

func getAVLibPaths() []string {
	var paths []string
	if p := os.Getenv("TRANSCODE_AVLIB_PATH"); p != "" {
		paths = append(paths, p)
	}
	name := "libtranscode_av.so"
	if runtime.GOOS == "darwin" {
		name = "libtranscode_av.dylib"
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), name))
	}
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, name))
	}
	if root := findModuleRoot(); root != "" {
		paths = append(paths, filepath.Join(root, "build", name))
	}
	paths = append(paths,
		filepath.Join("/usr/local/lib", name),
		filepath.Join("/usr/lib", name),
		name, // let the dynamic linker's default search path try
	)
	return paths
}

func loadAVLib() {
	paths := getAVLibPaths()
	for _, p := range paths {
		lib, err := purego.Dlopen(p, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			avLib = lib
			registerAVLibFuncs()
			setProviderAvailable(ProviderLibavcodec)
			return
		}
		avLibErr = err
	}
}

func ensureAVLib() error {
	avLibOnce.Do(loadAVLib)
	if avLib == 0 {
		return fmt.Errorf("libtranscode_av not found: %w", avLibErr)
	}
	return nil
}

// Flat C ABI surface. All functions return 0 on success and a negative
// errno-style code otherwise, except where noted.
var (
	avProbe          func(path string, out uintptr) int32
	avDemuxOpen      func(path string) uintptr
	avDemuxRead      func(handle uintptr, out uintptr) int32
	avDemuxClose     func(handle uintptr)
	avDecoderOpen    func(kind int32, codecParams uintptr, paramsLen int32) uintptr
	avDecoderSend    func(handle uintptr, data uintptr, dataLen int32, pts, dts int64) int32
	avDecoderReceive func(handle uintptr, out uintptr) int32
	avDecoderClose   func(handle uintptr)

	avEncVideoOpen    func(codec int32, width, height, fps, bitrate, gop, maxBFrames int32) uintptr
	avEncVideoSend    func(handle uintptr, y, u, v uintptr, strideY, strideU, strideV int32, pts int64) int32
	avEncReceive      func(handle uintptr, out uintptr) int32
	avEncVideoClose   func(handle uintptr)
	avEncAudioOpen    func(codec int32, sampleRate, channels, bitrate int32, outFrameSize uintptr) uintptr
	avEncAudioSend    func(handle uintptr, planar uintptr, numSamples int32, pts int64) int32
	avEncAudioClose   func(handle uintptr)

	avMuxOpen       func(path string, outFmt string) uintptr
	avMuxAddVideo   func(handle uintptr, codec int32, width, height, fps int32) int32
	avMuxAddAudio   func(handle uintptr, codec int32, sampleRate, channels int32) int32
	avMuxWritePkt   func(handle uintptr, kind int32, data uintptr, dataLen int32, pts, dts, dur int64, key int32) int32
	avMuxClose      func(handle uintptr)

	swsYUVToRGB func(yPtr, uPtr, vPtr uintptr, strideY, strideU, strideV, w, h int32, rgbOut uintptr) int32
	swsRGBToYUV func(rgbPtr uintptr, w, h int32, yOut, uOut, vOut uintptr) int32
)

// avProbeResult mirrors the shim's output struct for av_probe. It is heap
// allocated (never stack) because purego call arguments referencing Go
// memory must remain valid and unmoved for the duration of the C call; the
// garbage collector is free to move stack-allocated values between
// scheduling points on some architectures.
type avProbeResult struct {
	VideoStreamIndex int32
	Width, Height    int32
	FPSNum, FPSDen   int32
	AudioStreamIndex int32
	SampleRate       int32
	Channels         int32
	VideoParamsPtr   uintptr
	VideoParamsLen   int32
	AudioParamsPtr   uintptr
	AudioParamsLen   int32
}

type avPacketResult struct {
	Kind     int32
	DataPtr  uintptr
	DataLen  int32
	PTS, DTS int64
	Duration int64
	KeyFrame int32
	EOF      int32
}

type avFrameResult struct {
	// video
	Y, U, V                uintptr
	StrideY, StrideU, StrideV int32
	Width, Height           int32
	// audio
	Planar     uintptr
	NumSamples int32
	// shared
	PTS        int64
	EAgain     int32
	EOF        int32
}

func registerAVLibFuncs() {
	purego.RegisterLibFunc(&avProbe, avLib, "tav_probe")
	purego.RegisterLibFunc(&avDemuxOpen, avLib, "tav_demux_open")
	purego.RegisterLibFunc(&avDemuxRead, avLib, "tav_demux_read")
	purego.RegisterLibFunc(&avDemuxClose, avLib, "tav_demux_close")
	purego.RegisterLibFunc(&avDecoderOpen, avLib, "tav_decoder_open")
	purego.RegisterLibFunc(&avDecoderSend, avLib, "tav_decoder_send")
	purego.RegisterLibFunc(&avDecoderReceive, avLib, "tav_decoder_receive")
	purego.RegisterLibFunc(&avDecoderClose, avLib, "tav_decoder_close")
	purego.RegisterLibFunc(&avEncVideoOpen, avLib, "tav_enc_video_open")
	purego.RegisterLibFunc(&avEncVideoSend, avLib, "tav_enc_video_send")
	purego.RegisterLibFunc(&avEncReceive, avLib, "tav_enc_receive")
	purego.RegisterLibFunc(&avEncVideoClose, avLib, "tav_enc_video_close")
	purego.RegisterLibFunc(&avEncAudioOpen, avLib, "tav_enc_audio_open")
	purego.RegisterLibFunc(&avEncAudioSend, avLib, "tav_enc_audio_send")
	purego.RegisterLibFunc(&avEncAudioClose, avLib, "tav_enc_audio_close")
	purego.RegisterLibFunc(&avMuxOpen, avLib, "tav_mux_open")
	purego.RegisterLibFunc(&avMuxAddVideo, avLib, "tav_mux_add_video")
	purego.RegisterLibFunc(&avMuxAddAudio, avLib, "tav_mux_add_audio")
	purego.RegisterLibFunc(&avMuxWritePkt, avLib, "tav_mux_write_packet")
	purego.RegisterLibFunc(&avMuxClose, avLib, "tav_mux_close")
	purego.RegisterLibFunc(&swsYUVToRGB, avLib, "tav_sws_yuv_to_rgb")
	purego.RegisterLibFunc(&swsRGBToYUV, avLib, "tav_sws_rgb_to_yuv")
}

func init() {
	// Best-effort: availability is probed lazily on first real use so that
	// importing this package never fails merely because the native library
	// is absent (mirrors the teacher's provider-availability convention).
}

func bytesPtr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
