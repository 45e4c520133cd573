package transcode

import (
	"math"
	"runtime"

	"github.com/sirupsen/logrus"
)

// VideoProcessorConfig carries the optional transforms of §4.4, evaluated in
// this fixed order: speed gate, rotation/identity, grayscale,
// brightness/contrast, blur, sharpen.
type VideoProcessorConfig struct {
	SpeedFactor     float64
	RotationDegrees float64
	EnableGrayscale bool
	Brightness      float64
	Contrast        float64
	EnableBlur      bool
	EnableSharpen   bool
}

// VideoProcessor applies §4.4's transforms and emits a contiguous,
// frame-indexed output timeline. It owns the GPU rotation context exclusively
// for the lifetime of its Run call.
type VideoProcessor struct {
	cfg VideoProcessorConfig
	log *logrus.Entry

	outFrames int64 // the single monotonic counter of §4.4
}

func NewVideoProcessor(cfg VideoProcessorConfig, log *logrus.Entry) *VideoProcessor {
	return &VideoProcessor{cfg: cfg, log: log.WithField("stage", "video_processor")}
}

// Run drives input frames through the configured transforms and pushes the
// result onto out, then finishes out. The GPU context, when rotation is
// enabled, is created once here and destroyed once at return — all on this
// goroutine, which is pinned with LockOSThread so the context is touched by
// exactly one thread for its whole lifetime, per §5.
func (p *VideoProcessor) Run(in *Queue[*VideoFrame], out *Queue[*VideoFrame]) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer out.Finish()

	var rotator *gpuRotator
	rotating := p.cfg.RotationDegrees != 0

	inputIndex := int64(0) // k of §4.4, 1-based
	for {
		frame, ok := in.Pop()
		if !ok {
			break
		}
		inputIndex++

		keep, dupes := speedGate(inputIndex, p.cfg.SpeedFactor)
		if !keep {
			continue
		}

		if rotating && rotator == nil {
			r, err := newGPURotator(frame.Width, frame.Height)
			if err != nil {
				p.log.WithError(err).Warn("GPU context unavailable, falling back to CPU identity for the whole stage")
				rotating = false
			} else {
				rotator = r
				defer rotator.close()
			}
		}

		processed := p.transform(frame, rotator)
		p.emit(processed, out)
		for i := 0; i < dupes; i++ {
			p.emit(processed.Clone(), out)
		}
	}

	p.log.WithField("out_frames", p.outFrames).Info("video processing complete")
	return nil
}

// emit stamps the single monotonic counter of §4.4 and pushes.
func (p *VideoProcessor) emit(f *VideoFrame, out *Queue[*VideoFrame]) {
	f.PTS = p.outFrames
	f.DTS = p.outFrames
	f.Dur = 1
	p.outFrames++
	out.Push(f)
}

// speedGate implements the drop/duplicate rule of §4.4 for input index k
// (1-based). keep reports whether the input frame survives; dupes is how
// many additional copies of a kept, non-dropped frame should be emitted
// (always 0 when speed >= 1.0).
func speedGate(k int64, speed float64) (keep bool, dupes int) {
	switch {
	case speed == 1.0:
		return true, 0
	case speed > 1.0:
		switch speed {
		case 1.5:
			return k%3 != 0, 0
		case 2.0:
			return k%2 != 0, 0
		default:
			threshold := int64(math.Round(100.0 / speed))
			return k%100 < threshold, 0
		}
	default: // speed < 1.0
		return true, int(math.Floor(1.0/speed)) - 1
	}
}

// transform applies rotation/identity then the CPU filter chain, in the
// fixed order of §4.4.
func (p *VideoProcessor) transform(frame *VideoFrame, rotator *gpuRotator) *VideoFrame {
	out := p.rotateOrIdentity(frame, rotator)
	if frame.Format != PixelFormatI420 {
		return out // filters are a no-op outside planar 8-bit YUV, per §4.4
	}
	if p.cfg.EnableGrayscale {
		applyGrayscale(out)
	}
	if p.cfg.Brightness != 1.0 || p.cfg.Contrast != 1.0 {
		applyBrightnessContrast(out, p.cfg.Brightness, p.cfg.Contrast)
	}
	if p.cfg.EnableBlur {
		applyBoxBlur(out)
	}
	if p.cfg.EnableSharpen {
		applySharpen(out)
	}
	return out
}

// rotateOrIdentity runs the GPU pipeline of §4.4 step 2, or an identity copy
// when rotation is disabled or the GPU has degraded.
func (p *VideoProcessor) rotateOrIdentity(frame *VideoFrame, rotator *gpuRotator) *VideoFrame {
	if rotator == nil || p.cfg.RotationDegrees == 0 {
		return frame.Clone()
	}
	rgb := yuvToRGB(frame)
	rgbOut := make([]byte, len(rgb))
	if err := rotator.rotate(rgb, p.cfg.RotationDegrees*math.Pi/180.0, rgbOut); err != nil {
		p.log.WithError(err).Warn("GPU rotation error, using CPU identity for this frame")
		return frame.Clone()
	}
	return rgbToYUV(rgbOut, frame.Width, frame.Height, frame.PTS)
}

func yuvToRGB(f *VideoFrame) []byte {
	rgb := make([]byte, f.Width*f.Height*3)
	swsYUVToRGB(bytesPtr(f.Data[0]), bytesPtr(f.Data[1]), bytesPtr(f.Data[2]),
		int32(f.Stride[0]), int32(f.Stride[1]), int32(f.Stride[2]),
		int32(f.Width), int32(f.Height), bytesPtr(rgb))
	return rgb
}

func rgbToYUV(rgb []byte, width, height int, pts int64) *VideoFrame {
	out := NewI420Frame(width, height)
	swsRGBToYUV(bytesPtr(rgb), int32(width), int32(height), bytesPtr(out.Data[0]), bytesPtr(out.Data[1]), bytesPtr(out.Data[2]))
	out.PTS = pts
	return out
}

// applyGrayscale overwrites the chroma planes with the neutral value 128.
func applyGrayscale(f *VideoFrame) {
	for _, plane := range [][]byte{f.Data[1], f.Data[2]} {
		for i := range plane {
			plane[i] = 128
		}
	}
}

// applyBrightnessContrast implements y' = clamp(((y-128)*c+128)*b, 0, 255)
// on the luma plane.
func applyBrightnessContrast(f *VideoFrame, brightness, contrast float64) {
	y := f.Data[0]
	for i, v := range y {
		val := ((float64(v) - 128.0) * contrast + 128.0) * brightness
		y[i] = clampByte(int(math.Round(val)))
	}
}

// applyBoxBlur averages each luma pixel with its 8 neighbors, leaving the
// 1-pixel border untouched.
func applyBoxBlur(f *VideoFrame) {
	y := f.Data[0]
	stride := f.Stride[0]
	src := append([]byte(nil), y...)
	for row := 1; row < f.Height-1; row++ {
		for col := 1; col < f.Width-1; col++ {
			sum := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					sum += int(src[(row+dy)*stride+(col+dx)])
				}
			}
			y[row*stride+col] = byte(sum / 9)
		}
	}
}

// applySharpen implements the discrete Laplacian kernel
// 5*center - (up+down+left+right), clamped, leaving the 1-pixel border
// untouched.
func applySharpen(f *VideoFrame) {
	y := f.Data[0]
	stride := f.Stride[0]
	src := append([]byte(nil), y...)
	for row := 1; row < f.Height-1; row++ {
		for col := 1; col < f.Width-1; col++ {
			center := int(src[row*stride+col])
			up := int(src[(row-1)*stride+col])
			down := int(src[(row+1)*stride+col])
			left := int(src[row*stride+col-1])
			right := int(src[row*stride+col+1])
			v := 5*center - (up + down + left + right)
			y[row*stride+col] = clampByte(v)
		}
	}
}
