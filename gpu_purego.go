//go:build darwin || linux

// Purego binding to libtranscode_gpu, a thin shim exposing an offscreen
// OpenGL context: create once, render a rotated fullscreen-quad draw per
// frame, destroy once. Mirrors the teacher's platform-specific device
// bindings (devices_linux_purego.go) in shape: one shim per native
// capability, loaded lazily, gated by a runtime-availability flag.
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
	gpuLib     uintptr
	gpuLibOnce sync.Once
	gpuLibErr  error
)

func getGPULibPaths() []string {
	var paths []string
	if p := os.Getenv("TRANSCODE_GL_PATH"); p != "" {
		paths = append(paths, p)
	}
	name := "libtranscode_gpu.so"
	if runtime.GOOS == "darwin" {
		name = "libtranscode_gpu.dylib"
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), name))
	}
	if root := findModuleRoot(); root != "" {
		paths = append(paths, filepath.Join(root, "build", name))
	}
	paths = append(paths, filepath.Join("/usr/local/lib", name), filepath.Join("/usr/lib", name), name)
	return paths
}

func loadGPULib() {
	for _, p := range getGPULibPaths() {
		lib, err := purego.Dlopen(p, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			gpuLib = lib
			registerGPUFuncs()
			setProviderAvailable(ProviderOpenGL)
			return
		}
		gpuLibErr = err
	}
}

func ensureGPULib() error {
	gpuLibOnce.Do(loadGPULib)
	if gpuLib == 0 {
		return fmt.Errorf("libtranscode_gpu not found: %w", gpuLibErr)
	}
	return nil
}

var (
	gpuContextCreate  func(width, height int32) uintptr
	gpuContextDestroy func(handle uintptr)
	// gpuRotate uploads rgbIn (packed RGB24, width*height*3 bytes) as a
	// texture, draws a fullscreen quad rotated by angleRadians into an
	// offscreen framebuffer sized width x height, and reads the result back
	// into rgbOut. Returns 0 on success, non-zero on any GL error (context
	// lost, shader failure, framebuffer incomplete).
	gpuRotate func(handle uintptr, rgbIn uintptr, width, height int32, angleRadians float64, rgbOut uintptr) int32
)

func registerGPUFuncs() {
	purego.RegisterLibFunc(&gpuContextCreate, gpuLib, "tgpu_context_create")
	purego.RegisterLibFunc(&gpuContextDestroy, gpuLib, "tgpu_context_destroy")
	purego.RegisterLibFunc(&gpuRotate, gpuLib, "tgpu_rotate")
}

// gpuRotator owns one offscreen GPU context for the lifetime of a video
// processor. It must only ever be used from the goroutine that created it
// (see VideoProcessor.Run, which pins itself with runtime.LockOSThread).
type gpuRotator struct {
	handle          uintptr
	width, height   int
	degraded        bool
}

func newGPURotator(width, height int) (*gpuRotator, error) {
	if err := ensureGPULib(); err != nil {
		return nil, newErr(ErrGpuInit, "video_processor", err)
	}
	h := gpuContextCreate(int32(width), int32(height))
	if h == 0 {
		return nil, newErr(ErrGpuInit, "video_processor", fmt.Errorf("GPU context creation failed"))
	}
	return &gpuRotator{handle: h, width: width, height: height}, nil
}

func (g *gpuRotator) close() {
	if g.handle != 0 {
		gpuContextDestroy(g.handle)
		g.handle = 0
	}
}

// rotate transforms rgbIn into rgbOut. Once degraded by a prior GL error it
// always reports failure without calling into the GPU again, escalating to
// CPU-only for the remainder of the stage per §7.
func (g *gpuRotator) rotate(rgbIn []byte, angleRadians float64, rgbOut []byte) error {
	if g.degraded {
		return fmt.Errorf("gpu degraded")
	}
	rc := gpuRotate(g.handle, bytesPtr(rgbIn), int32(g.width), int32(g.height), angleRadians, bytesPtr(rgbOut))
	if rc != 0 {
		g.degraded = true
		return fmt.Errorf("GPU rotate failed: rc=%d", rc)
	}
	return nil
}
