package transcode

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// PipelineState tracks a transcode run's lifecycle, mirroring the teacher's
// idle/running/stopped state machine. Transcode itself exposes no pause
// surface (not part of the external interface), but each run still carries
// this state for its internal shutdown bookkeeping.
type PipelineState int32

const (
	PipelineStateIdle PipelineState = iota
	PipelineStateRunning
	PipelineStateStopped
)

func (s PipelineState) String() string {
	switch s {
	case PipelineStateIdle:
		return "idle"
	case PipelineStateRunning:
		return "running"
	case PipelineStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// pipeline owns the eight stage goroutines and the eight queues wiring them
// together (video packet, audio packet, video frame, audio frame, video
// frame-out, audio frame-out, video packet-out, audio packet-out — muxer has
// two inputs, not an output queue).
type pipeline struct {
	state atomic.Int32
	wg    sync.WaitGroup

	mu      sync.Mutex
	errs    []error
	log     *logrus.Entry
}

func (p *pipeline) recordErr(err error) {
	if err == nil {
		return
	}
	p.mu.Lock()
	p.errs = append(p.errs, err)
	p.mu.Unlock()
}

func (p *pipeline) firstErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.errs) == 0 {
		return nil
	}
	return p.errs[0]
}

// run launches fn on its own goroutine, tracked by the pipeline's WaitGroup,
// recording any returned error.
func (p *pipeline) run(fn func() error) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.recordErr(fn())
	}()
}

// Transcode is the single entry point of §6: validate config, probe the
// input, build and run the eight-stage pipeline to completion, and report
// the first stage failure, if any.
func Transcode(ctx context.Context, config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	log := logrus.NewEntry(logrus.StandardLogger()).WithField("component", "transcode")

	info, err := ProbeStream(config.InputPath)
	if err != nil {
		return err
	}

	audioCodec := targetAudioCodec(config.TargetAudioFormat)
	videoBitrate := config.VideoBitrate
	if videoBitrate == 0 && info.HasVideo {
		fps := info.videoFPS()
		if fps == 0 {
			fps = 30
		}
		videoBitrate = info.VideoWidth * info.VideoHeight * fps / 10
	}
	audioBitrate := config.AudioBitrate
	if audioBitrate == 0 {
		audioBitrate = defaultAudioBitrate(audioCodec)
	}

	p := &pipeline{log: log}
	p.state.Store(int32(PipelineStateRunning))
	defer p.state.Store(int32(PipelineStateStopped))

	qc := config.QueueCapacities

	videoPacketQ := NewQueue[*CompressedPacket](qc.VideoPacket)
	audioPacketQ := NewQueue[*CompressedPacket](qc.AudioPacket)
	videoFrameQ := NewQueue[*VideoFrame](qc.VideoFrame)
	audioFrameQ := NewQueue[*AudioFrame](qc.AudioFrame)
	videoFrameProcQ := NewQueue[*VideoFrame](qc.VideoFrame)
	audioFrameProcQ := NewQueue[*AudioFrame](qc.AudioFrame)
	videoPacketOutQ := NewQueue[*EncodedPacket](qc.VideoPacketOut)
	audioPacketOutQ := NewQueue[*EncodedPacket](qc.AudioPacketOut)

	// target_audio_format = COPY bypasses decode/process/encode for audio
	// entirely: the compressed packet queue feeds runAudioCopy directly, so
	// the audio decoder stage must never also drain it.
	copyAudio := config.TargetAudioFormat == AudioTargetCopy

	// Stage 1: demuxer.
	demuxer := NewDemuxer(config.InputPath, config.MaxVideoFrames, log)
	p.run(func() error { return demuxer.Run(videoPacketQ, audioPacketQ) })

	// Stage 2: decoders.
	if info.HasVideo {
		vdec := NewVideoDecoderStage(info.VideoCodecParams, log)
		p.run(func() error { return vdec.Run(videoPacketQ, videoFrameQ) })
	} else {
		videoPacketQ.Finish()
		videoFrameQ.Finish()
	}
	if info.HasAudio && !copyAudio {
		adec := NewAudioDecoderStage(info.AudioCodecParams, info.AudioSampleRate, info.AudioChannels, log)
		p.run(func() error { return adec.Run(audioPacketQ, audioFrameQ) })
	} else if !copyAudio {
		audioPacketQ.Finish()
		audioFrameQ.Finish()
	} else {
		audioFrameQ.Finish() // unused: runAudioCopy reads audioPacketQ directly
	}

	// Stage 3: processors.
	if info.HasVideo {
		vproc := NewVideoProcessor(VideoProcessorConfig{
			SpeedFactor:     config.SpeedFactor,
			RotationDegrees: config.RotationDegrees,
			EnableGrayscale: config.EnableGrayscale,
			Brightness:      config.Brightness,
			Contrast:        config.Contrast,
			EnableBlur:      config.EnableBlur,
			EnableSharpen:   config.EnableSharpen,
		}, log)
		p.run(func() error { return vproc.Run(videoFrameQ, videoFrameProcQ) })
	} else {
		videoFrameProcQ.Finish()
	}

	if info.HasAudio && !copyAudio {
		frameSize := audioCodec.RequiredFrameSize()
		aproc := NewAudioProcessor(AudioProcessorConfig{
			SpeedFactor: config.SpeedFactor,
			FrameSize:   frameSize,
			Channels:    info.AudioChannels,
			SampleRate:  info.AudioSampleRate,
		}, log)
		p.run(func() error { return aproc.Run(audioFrameQ, audioFrameProcQ) })
	} else if !copyAudio {
		audioFrameProcQ.Finish()
	}

	// Stage 4: encoders.
	if info.HasVideo {
		venc, err := NewVideoEncoder(VideoEncoderConfig{
			Codec:      VideoCodecMPEG4,
			Provider:   ProviderAuto,
			Width:      info.VideoWidth,
			Height:     info.VideoHeight,
			FPS:        info.videoFPS(),
			BitrateBps: videoBitrate,
			GopSize:    250,
			MaxBFrames: 0,
		})
		if err != nil {
			videoFrameProcQ.Finish()
			videoPacketOutQ.Finish()
			p.recordErr(err)
		} else {
			p.run(func() error { return runVideoEncoder(venc, videoFrameProcQ, videoPacketOutQ, log) })
		}
	} else {
		videoPacketOutQ.Finish()
	}

	if info.HasAudio {
		if copyAudio {
			p.run(func() error { return runAudioCopy(audioPacketQ, audioPacketOutQ) })
		} else {
			aenc, err := NewAudioEncoder(AudioEncoderConfig{
				Codec:      audioCodec,
				Provider:   ProviderAuto,
				SampleRate: info.AudioSampleRate,
				Channels:   info.AudioChannels,
				BitrateBps: audioBitrate,
			})
			if err != nil {
				audioFrameProcQ.Finish()
				audioPacketOutQ.Finish()
				p.recordErr(err)
			} else {
				p.run(func() error { return runAudioEncoder(aenc, audioFrameProcQ, audioPacketOutQ, log) })
			}
		}
	} else {
		audioPacketOutQ.Finish()
	}

	// Stage 5: muxer.
	muxer := NewMuxer(MuxerConfig{
		OutputPath:   config.OutputPath,
		OutputFormat: config.OutputFormat,
		VideoCodec:   VideoCodecMPEG4,
		Width:        info.VideoWidth,
		Height:       info.VideoHeight,
		FPS:          info.videoFPS(),
		AudioCodec:   audioCodec,
		SampleRate:   info.AudioSampleRate,
		Channels:     info.AudioChannels,
	}, log)
	p.run(func() error { return muxer.Run(videoPacketOutQ, audioPacketOutQ) })

	p.wg.Wait()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return p.firstErr()
}

func targetAudioCodec(f TargetAudioFormat) AudioCodec {
	switch f {
	case AudioTargetAC3:
		return AudioCodecAC3
	case AudioTargetAAC:
		return AudioCodecAAC
	case AudioTargetMP3:
		return AudioCodecMP3
	default:
		return AudioCodecUnknown
	}
}

func defaultAudioBitrate(codec AudioCodec) int {
	switch codec {
	case AudioCodecAC3:
		return 192000
	case AudioCodecAAC:
		return 128000
	case AudioCodecMP3:
		return 192000
	default:
		return 128000
	}
}

// runVideoEncoder drains the video frame queue through a VideoEncoder,
// pushing every produced packet, then flushes once the queue finishes.
func runVideoEncoder(enc VideoEncoder, in *Queue[*VideoFrame], out *Queue[*EncodedPacket], log *logrus.Entry) error {
	defer out.Finish()
	defer enc.Close()

	entry := log.WithField("stage", "video_encoder")
	for {
		frame, ok := in.Pop()
		if !ok {
			break
		}
		pkts, err := enc.Encode(frame)
		if err != nil {
			entry.WithError(err).WithField("pts", frame.PTS).Warn("encode submission failed, skipping frame")
			continue
		}
		for _, pkt := range pkts {
			out.Push(pkt)
		}
	}
	pkts, err := enc.Flush()
	if err != nil {
		entry.WithError(err).Warn("flush failed")
	}
	for _, pkt := range pkts {
		out.Push(pkt)
	}
	return nil
}

// runAudioEncoder mirrors runVideoEncoder for the audio path.
func runAudioEncoder(enc AudioEncoder, in *Queue[*AudioFrame], out *Queue[*EncodedPacket], log *logrus.Entry) error {
	defer out.Finish()
	defer enc.Close()

	entry := log.WithField("stage", "audio_encoder")
	for {
		frame, ok := in.Pop()
		if !ok {
			break
		}
		pkts, err := enc.Encode(frame)
		if err != nil {
			entry.WithError(err).WithField("pts", frame.PTS).Warn("encode submission failed, skipping frame")
			continue
		}
		for _, pkt := range pkts {
			out.Push(pkt)
		}
	}
	pkts, err := enc.Flush()
	if err != nil {
		entry.WithError(err).Warn("flush failed")
	}
	for _, pkt := range pkts {
		out.Push(pkt)
	}
	return nil
}

// runAudioCopy bypasses decode/process/encode entirely for
// target_audio_format = COPY, re-wrapping each compressed packet as an
// EncodedPacket, per §4.6's CopyEncoder contract.
func runAudioCopy(in *Queue[*CompressedPacket], out *Queue[*EncodedPacket]) error {
	defer out.Finish()
	for {
		pkt, ok := in.Pop()
		if !ok {
			break
		}
		out.Push(&EncodedPacket{
			Kind:     pkt.Kind,
			Data:     pkt.Data,
			PTS:      pkt.PTS,
			DTS:      pkt.DTS,
			Duration: pkt.Duration,
			KeyFrame: pkt.KeyFrame,
		})
	}
	return nil
}
