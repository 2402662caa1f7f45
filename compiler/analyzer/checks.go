package analyzer

import "github.com/Carmen-Shannon/pngine/compiler/ast"

// CheckUniformWriteConflicts implements spec.md §4.3's cross-cutting
// check: "Buffers that are the target of a uniform binding AND are
// written by a write_buffer opcode raise warning W009." #queue/#init
// macros hold the ordered `writeBuffer = { buffer = @name, ... }` actions
// that become write_buffer opcodes; #bindGroup declarations name the
// buffers bound as uniforms. A buffer appearing in both sets is flagged:
// a host calling set_uniform on it later could silently race the
// compile-time initial write.
func (a *Analysis) CheckUniformWriteConflicts() {
	uniformBuffers := map[string]bool{}
	for _, sym := range a.order[KindBindGroup] {
		for _, bufName := range a.collectPropertyRefs(sym.NodeIndex, "buffer") {
			uniformBuffers[bufName] = true
		}
	}

	written := map[string]int{} // name -> offending node offset
	for _, k := range []Kind{KindQueue, KindInit} {
		for _, sym := range a.order[k] {
			for propIdx, writeBuf := range a.findWriteBufferActions(sym.NodeIndex) {
				for _, bufName := range a.collectPropertyRefs(writeBuf, "buffer") {
					if _, seen := written[bufName]; !seen {
						written[bufName] = a.Tree.Get(propIdx).Tok.Offset
					}
				}
			}
		}
	}

	for name, offset := range written {
		if uniformBuffers[name] {
			a.Diagnostics.Warnf("W009", offset, "buffer %q is both a uniform binding target and written by writeBuffer; set_uniform may race this initial write", name)
		}
	}
}

// findWriteBufferActions returns, for every "writeBuffer" property nested
// anywhere under declIdx, the (propertyNodeIndex, objectNodeIndex) of its
// object value.
func (a *Analysis) findWriteBufferActions(declIdx int) map[int]int {
	out := map[int]int{}
	var walk func(int)
	walk = func(idx int) {
		for _, c := range a.Tree.Children(idx) {
			n := a.Tree.Get(c)
			if n.Kind == ast.Property && n.Name == "writeBuffer" {
				vals := a.Tree.Children(c)
				if len(vals) > 0 && a.Tree.Get(vals[0]).Kind == ast.Object {
					out[c] = vals[0]
				}
				continue
			}
			walk(c)
		}
	}
	walk(declIdx)
	return out
}

// collectPropertyRefs returns the reference names of every "@name" value
// bound to a property called key, anywhere under idx.
func (a *Analysis) collectPropertyRefs(idx int, key string) []string {
	var out []string
	var walk func(int)
	walk = func(i int) {
		for _, c := range a.Tree.Children(i) {
			n := a.Tree.Get(c)
			if n.Kind == ast.Property && n.Name == key {
				vals := a.Tree.Children(c)
				if len(vals) > 0 {
					if v := a.Tree.Get(vals[0]); v.Kind == ast.Ref {
						out = append(out, v.Name)
					}
				}
				continue
			}
			walk(c)
		}
	}
	walk(idx)
	return out
}
