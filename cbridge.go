package transcode

import (
	"runtime"
	"unsafe"
)

// ptrOf returns the address of a heap-escaping Go value for passing to a C
// function via purego. Callers must keep the original variable alive (via
// runtime.KeepAlive) until the C call returns.
func ptrOf(v any) unsafe.Pointer {
	switch p := v.(type) {
	case *avProbeResult:
		return unsafe.Pointer(p)
	case *avPacketResult:
		return unsafe.Pointer(p)
	case *avFrameResult:
		return unsafe.Pointer(p)
	default:
		return nil
	}
}

// uintptrOf returns the address of any pointer-typed Go value as a uintptr
// for a purego call argument.
func uintptrOf[T any](v *T) uintptr {
	if v == nil {
		return 0
	}
	return uintptr(unsafe.Pointer(v))
}

// bytesFloatPtr returns the address of a float32 slice's backing array.
func bytesFloatPtr(v []float32) uintptr {
	if len(v) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&v[0]))
}

// interleaveChannelMajor packs an AudioFrame's planar channels back-to-back
// (channel-major, matching the shim's ABI - see deinterleavePlanar).
func interleaveChannelMajor(f *AudioFrame) []float32 {
	out := make([]float32, f.Channels*f.NumSamples)
	for ch, plane := range f.Planes {
		copy(out[ch*f.NumSamples:(ch+1)*f.NumSamples], plane)
	}
	return out
}

// copyCBytes copies n bytes out of C-owned memory at ptr into a freshly
// allocated Go slice, so the result outlives the C call that produced it.
func copyCBytes(ptr uintptr, n int32) []byte {
	if ptr == 0 || n <= 0 {
		return nil
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), int(n))
	out := make([]byte, int(n))
	copy(out, src)
	runtime.KeepAlive(src)
	return out
}
