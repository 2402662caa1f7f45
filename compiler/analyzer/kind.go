// Package analyzer builds per-kind symbol tables over a parsed ast.Tree,
// resolves cross-references, and validates declarations against fixed
// dictionaries (spec.md §4.3). Grounded on the teacher's per-kind
// map[int]T side-table idiom (e.g. engine/renderer/pipeline/
// pipeline_builder.go's id-indexed resource tables), generalized from "one
// table of GPU handles" to "one table per DSL declaration kind."
package analyzer

// Kind identifies a macro declaration's kind — one per keyword in
// spec.md §3.1, excluding "#define" which is handled as textual
// substitution rather than a referenceable declaration.
type Kind int

const (
	KindWgsl Kind = iota
	KindBuffer
	KindTexture
	KindSampler
	KindBindGroupLayout
	KindPipelineLayout
	KindRenderPipeline
	KindComputePipeline
	KindBindGroup
	KindTextureView
	KindQuerySet
	KindRenderPass
	KindComputePass
	KindQueue
	KindInit
	KindFrame
	KindData
	kindCount
)

// keywordToKind maps a macro keyword's source text to its Kind.
var keywordToKind = map[string]Kind{
	"#wgsl":            KindWgsl,
	"#buffer":          KindBuffer,
	"#texture":         KindTexture,
	"#sampler":         KindSampler,
	"#bindGroupLayout": KindBindGroupLayout,
	"#pipelineLayout":  KindPipelineLayout,
	"#renderPipeline":  KindRenderPipeline,
	"#computePipeline": KindComputePipeline,
	"#bindGroup":       KindBindGroup,
	"#textureView":     KindTextureView,
	"#querySet":        KindQuerySet,
	"#renderPass":      KindRenderPass,
	"#computePass":     KindComputePass,
	"#queue":           KindQueue,
	"#init":            KindInit,
	"#frame":           KindFrame,
	"#data":            KindData,
}

// String renders a Kind's keyword for diagnostics.
func (k Kind) String() string {
	for kw, v := range keywordToKind {
		if v == k {
			return kw
		}
	}
	return "unknown"
}

// KindOf returns the Kind for a macro keyword's source text.
//
// Parameters:
//   - keyword: the keyword text including its leading "#"
//
// Returns:
//   - Kind: the matching kind
//   - bool: whether keyword was recognized
func KindOf(keyword string) (Kind, bool) {
	k, ok := keywordToKind[keyword]
	return k, ok
}
