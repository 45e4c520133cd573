// Package transcode implements the core pipeline of a multi-threaded
// audio/video transcoder: a bounded-queue producer/consumer pipeline of
// eight stages (demux, video/audio decode, video/audio processing, video/
// audio encode, mux), a tempo-preserving speed transform that keeps audio
// and video mutually in sync, and a GPU-offloaded video rotation stage with
// a CPU fallback.
//
// # Architecture
//
//	File -> Demuxer -+-> vPkt -> VideoDecoder -> vFrame -> VideoProcessor -> vFrameP -> VideoEncoder -> vPacket -+
//	                 +-> aPkt -> AudioDecoder -> aFrame -> AudioProcessor -> aFrameP -> AudioEncoder -> aPacket -+-> Muxer -> File
//
// Each stage runs on its own goroutine and communicates only through
// *Queue, a bounded, blocking, single-producer/single-consumer FIFO with
// explicit termination (see queue.go). There is no other shared state
// between stages; codec and GPU contexts are owned exclusively by the stage
// that created them.
//
// # Native libraries
//
// Decoding, encoding, demuxing, and muxing are delegated to the host's
// libavformat/libavcodec/libswscale installation, loaded at runtime via
// purego (no cgo, no C toolchain required to build this module). Tempo
// stretching is delegated to libSoundTouch the same way. GPU rotation goes
// through libtranscode_gpu, a shim around an offscreen OpenGL context. See
// avlib_purego.go, gpu_purego.go, and
// soundtouch_purego.go. Library search paths can be overridden with the
// TRANSCODE_AVLIB_PATH, TRANSCODE_GL_PATH, and TRANSCODE_SOUNDTOUCH_PATH
// environment variables.
//
// # Entry point
//
// Transcode(ctx, config) validates config, probes the input, builds the
// eight-stage pipeline, and runs it to completion, returning the first
// fatal stage error, if any. See pipeline.go and config.go.
package transcode
