package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/pngine/compiler/analyzer"
	"github.com/Carmen-Shannon/pngine/compiler/lexer"
	"github.com/Carmen-Shannon/pngine/compiler/parser"
)

func analyze(t *testing.T, src string) *analyzer.Analysis {
	t.Helper()
	toks, err := lexer.New(src).All()
	assert.NoError(t, err)
	tree, err := parser.New(toks).Parse()
	assert.NoError(t, err)
	a, err := analyzer.Analyze(tree)
	assert.NoError(t, err)
	return a
}

func TestAnalyzer_DenseIdsInDeclarationOrder(t *testing.T) {
	a := analyze(t, `
		#buffer a { size = 4 usage = [uniform] }
		#buffer b { size = 8 usage = [storage] }
	`)
	order := a.DeclOrder(analyzer.KindBuffer)
	assert.Len(t, order, 2)
	assert.Equal(t, uint32(0), order[0].ID)
	assert.Equal(t, uint32(1), order[1].ID)
	assert.Equal(t, "a", order[0].Name)
	assert.Equal(t, "b", order[1].Name)
}

func TestAnalyzer_DuplicateNameIsFatal(t *testing.T) {
	a := analyze(t, `
		#buffer a { size = 4 usage = [uniform] }
		#buffer a { size = 8 usage = [storage] }
	`)
	assert.True(t, a.Diagnostics.HasFatal())
}

func TestAnalyzer_UnresolvedReferenceIsFatal(t *testing.T) {
	a := analyze(t, `
		#bindGroup bg {
			buffer = @nonexistent
		}
	`)
	assert.True(t, a.Diagnostics.HasFatal())
}

func TestAnalyzer_ResolvesKnownReference(t *testing.T) {
	a := analyze(t, `
		#buffer myBuf { size = 4 usage = [uniform] }
		#bindGroup bg {
			buffer = @myBuf
		}
	`)
	assert.False(t, a.Diagnostics.HasFatal())
	id, ok := a.ResolveRef("myBuf")
	assert.True(t, ok)
	assert.Equal(t, uint32(0), id)
}

func TestAnalyzer_UnknownEnumValueIsFatal(t *testing.T) {
	a := analyze(t, `
		#sampler s {
			addressModeU = bogus
		}
	`)
	assert.True(t, a.Diagnostics.HasFatal())
}

func TestAnalyzer_DefineSubstitutionIntoWGSL(t *testing.T) {
	a := analyze(t, `
		#define COUNT 4
		#wgsl shader {
			source = "const n: u32 = COUNT;"
		}
	`)
	assert.Equal(t, "const n: u32 = 4;", a.SubstitutedWGSL["shader"])
}

func TestAnalyzer_EmissionOrderRespectsDependencies(t *testing.T) {
	a := analyze(t, `
		#buffer buf { size = 4 usage = [uniform] }
		#bindGroupLayout bgl {
			entry = { binding = 0, buffer = @buf }
		}
		#bindGroup bg {
			layout = @bgl
			buffer = @buf
		}
	`)
	assert.False(t, a.Diagnostics.HasFatal())

	pos := map[int]int{}
	for i, n := range a.EmissionOrder {
		pos[n] = i
	}
	bufSym := a.Symbols(analyzer.KindBuffer)["buf"]
	bglSym := a.Symbols(analyzer.KindBindGroupLayout)["bgl"]
	bgSym := a.Symbols(analyzer.KindBindGroup)["bg"]

	assert.Less(t, pos[bufSym.NodeIndex], pos[bglSym.NodeIndex])
	assert.Less(t, pos[bglSym.NodeIndex], pos[bgSym.NodeIndex])
}

func TestAnalyzer_UniformWriteConflictWarns(t *testing.T) {
	a := analyze(t, `
		#buffer buf { size = 4 usage = [uniform] }
		#bindGroup bg {
			buffer = @buf
		}
		#init setup {
			writeBuffer = { buffer = @buf }
		}
	`)
	assert.False(t, a.Diagnostics.HasFatal())
	found := false
	for _, w := range a.Diagnostics.Warnings() {
		if w.Code == "W009" {
			found = true
		}
	}
	assert.True(t, found)
}
