// Package pngine is the host-facing entry point (spec.md §6.4): load a PNG
// or bare PNGB payload, drive its preamble once, then replay named frame
// bodies and push uniform-by-name writes against whichever backend.Backend
// the host supplies.
//
// Grounded on the teacher's engine/engine.go top-level wiring (one
// constructor assembling the renderer/scene/window trio from raw inputs),
// generalized here from "build a 3D engine" to "load one PNGB program."
package pngine

import (
	"github.com/Carmen-Shannon/pngine/common"
	"github.com/Carmen-Shannon/pngine/png"
	"github.com/Carmen-Shannon/pngine/runtime/backend"
	"github.com/Carmen-Shannon/pngine/runtime/dispatcher"
	"github.com/Carmen-Shannon/pngine/runtime/loader"
	"github.com/Carmen-Shannon/pngine/runtime/uniform"
)

var pngSignature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Instance is one loaded, running PNGine program against one backend.
// Not safe for concurrent use — spec.md §5 makes the executor single-
// threaded and cooperative, the sole mutator of its own state.
type Instance struct {
	program    *loader.Program
	dispatcher *dispatcher.Dispatcher
	uniforms   *uniform.Table
	backend    backend.Backend
}

// Load accepts either a complete PNG file with an embedded PNGB chunk or a
// bare PNGB payload, validates and decodes it, replays its preamble once
// against be, and returns a ready-to-render Instance.
//
// Parameters:
//   - raw: PNG file bytes or bare PNGB bytes
//   - be: the backend.Backend this instance drives — a *backend.Native for
//     a live device, or backend.NewMock() for tests and tooling
//
// Returns:
//   - *Instance: ready for RenderFrame/SetUniform calls
//   - error: non-nil (*LoadError, a *png.PngError, or a *loader.PngbError)
//     if raw fails to decode or its preamble fails to replay
func Load(raw []byte, be backend.Backend) (*Instance, error) {
	pngb := raw
	if looksLikePNG(raw) {
		extracted, err := png.Extract(raw)
		if err != nil {
			return nil, err
		}
		pngb = extracted
	}

	prog, err := loader.Load(pngb)
	if err != nil {
		return nil, err
	}

	if n, ok := be.(*backend.Native); ok {
		n.SetStrings(prog.Payload.Strings)
	}

	d := dispatcher.New(be, prog)
	if err := d.RunPreamble(); err != nil {
		return nil, &LoadError{Reason: "preamble replay failed: " + err.Error()}
	}

	return &Instance{
		program:    prog,
		dispatcher: d,
		uniforms:   uniform.Build(prog.Payload.Strings, prog.Payload.Uniforms),
		backend:    be,
	}, nil
}

func looksLikePNG(b []byte) bool {
	if len(b) < 8 {
		return false
	}
	for i, s := range pngSignature {
		if b[i] != s {
			return false
		}
	}
	return true
}

// RenderFrame replays the named #frame body once. If the loaded program
// declares a uniform field named "time", RenderFrame writes time into it
// first — the well-known binding spec.md §6.4's render_frame(instance,
// time, frame_name_id) signature threads through explicitly. A program
// with no such field simply skips that write.
//
// Parameters:
//   - name: the #frame declaration's name
//   - time: the current frame time, written to the "time" uniform if one
//     is declared
//
// Returns:
//   - error: non-nil if name is unknown, the pass-state machine rejects
//     an opcode in the frame body, or the backend itself fails a call
func (inst *Instance) RenderFrame(name string, time float32) error {
	buf := make([]byte, 4)
	common.PutFloat32(buf, 0, time)
	if err := inst.dispatcher.SetUniform(inst.uniforms, "time", buf); err != nil {
		if _, isPathErr := err.(*uniform.PathError); !isPathErr {
			return err
		}
	}
	return inst.dispatcher.RenderFrame(name)
}

// SetUniform resolves path against the loaded program's uniform table and
// writes bytes to the backend (spec.md §4.11).
func (inst *Instance) SetUniform(path string, data []byte) error {
	return inst.dispatcher.SetUniform(inst.uniforms, path, data)
}

// UniformInfo describes one addressable uniform field or whole-struct
// subtree, for host introspection (spec.md §6.4's `uniforms` call).
type UniformInfo struct {
	Path string
	Size uint32
}

// Uniforms lists every leaf uniform field's path and declared size.
func (inst *Instance) Uniforms() []UniformInfo {
	names := inst.uniforms.Names()
	out := make([]UniformInfo, 0, len(names))
	for _, path := range names {
		e, err := inst.uniforms.Lookup(path)
		if err != nil {
			continue
		}
		out = append(out, UniformInfo{Path: path, Size: e.Size})
	}
	return out
}

// FrameNames lists every #frame declared in the loaded program, in
// declaration order.
func (inst *Instance) FrameNames() []string {
	return inst.program.FrameOrder
}

// Destroy releases the instance's references to its loaded program and
// dispatcher. The backend itself outlives Destroy — the host owns it and
// is responsible for releasing any GPU resources it created.
func (inst *Instance) Destroy() {
	inst.program = nil
	inst.dispatcher = nil
	inst.uniforms = nil
	inst.backend = nil
}

// LoadError reports a failure specific to pngine.Load itself, distinct
// from the more specific *png.PngError / *loader.PngbError it may wrap.
type LoadError struct {
	Reason string
}

func (e *LoadError) Error() string {
	return "pngine: load: " + e.Reason
}
