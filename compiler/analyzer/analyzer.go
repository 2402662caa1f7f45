package analyzer

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/Carmen-Shannon/pngine/common"
	"github.com/Carmen-Shannon/pngine/compiler/ast"
	"github.com/Carmen-Shannon/pngine/compiler/descriptor"
	"github.com/Carmen-Shannon/pngine/compiler/diagnostics"
)

// Symbol is one declared name within a Kind's table (spec.md §3.3).
type Symbol struct {
	Name      string
	NodeIndex int
	ID        uint32
	Kind      Kind

	// Pool is the number of physical sub-buffers a #buffer's `pool=N`
	// property reserves (spec.md §4.9.3). 1 for every non-buffer
	// declaration and for an ordinary, non-pooled buffer; ID is the
	// first of Pool consecutive ids the emitter creates physical
	// buffers under.
	Pool uint32
}

// Analysis is the Analyzer's output: per-kind symbol tables, resolved
// reference targets, substituted WGSL source, a dependency-ordered
// emission list, and any accumulated diagnostics.
type Analysis struct {
	Tree *ast.Tree

	tables [kindCount]map[string]*Symbol
	order  [kindCount][]*Symbol

	// Defines holds #define bindings by name, textually substituted into
	// WGSL source before reflection (spec.md §3.1).
	Defines map[string]string

	// SubstitutedWGSL maps a #wgsl declaration's name to its
	// post-substitution source text. The AST itself stays read-only
	// (spec.md §3.2); this side table is where substitution results live.
	SubstitutedWGSL map[string]string

	// ResolvedRefs maps a Ref node's arena index to the Symbol it
	// resolved to.
	ResolvedRefs map[int]*Symbol

	// EmissionOrder lists declaration node indices (covering every kind
	// except Queue/Init/Frame, which are action sequences rather than
	// single resources) in topological dependency order — the order the
	// emitter creates resources in the preamble (spec.md §4.6, §9).
	EmissionOrder []int

	Diagnostics *diagnostics.Bag
}

// Symbols returns the symbol table for kind, by declaration name.
func (a *Analysis) Symbols(kind Kind) map[string]*Symbol {
	return a.tables[kind]
}

// DeclOrder returns kind's symbols in declaration (dense id) order.
func (a *Analysis) DeclOrder(kind Kind) []*Symbol {
	return a.order[kind]
}

// ResolveRef implements descriptor.Resolver: looks up a reference's
// dense id by name across every kind's table (first match wins — names
// are unique per kind but the DSL does not itself disambiguate which
// kind a bare "@name" targets; the analyzer's pass 2 already validated
// that the reference appeared in a context expecting a resolvable
// target).
func (a *Analysis) ResolveRef(name string) (uint32, bool) {
	for k := Kind(0); k < kindCount; k++ {
		if sym, ok := a.tables[k][name]; ok {
			return sym.ID, true
		}
	}
	return 0, false
}

// PoolSizeOf implements descriptor.Resolver: returns the declared pool
// size (spec.md §4.9.3) of a #buffer by name, so the descriptor encoder
// can synthesize a bind group's FieldPoolSize without the DSL author
// repeating it.
func (a *Analysis) PoolSizeOf(name string) (uint32, bool) {
	sym, ok := a.tables[KindBuffer][name]
	if !ok {
		return 0, false
	}
	return sym.Pool, true
}

var defineUseRe = func(name string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
}

// Analyze runs both passes over tree: declare (assign dense per-kind ids,
// detect duplicates) then resolve (substitute defines, resolve
// references, validate enum values, build the emission order).
//
// Parameters:
//   - tree: a parsed, read-only AST
//
// Returns:
//   - *Analysis: the full analysis result, populated even when fatal
//     diagnostics were recorded (callers should check Diagnostics.HasFatal)
//   - error: non-nil only for conditions that make any further analysis
//     meaningless (currently never returned; all failures are recorded as
//     diagnostics so multiple issues can be reported per spec.md §7)
func Analyze(tree *ast.Tree) (*Analysis, error) {
	a := &Analysis{
		Tree:            tree,
		Defines:         map[string]string{},
		SubstitutedWGSL: map[string]string{},
		ResolvedRefs:    map[int]*Symbol{},
		Diagnostics:     diagnostics.NewBag(),
	}
	for k := Kind(0); k < kindCount; k++ {
		a.tables[k] = map[string]*Symbol{}
	}

	a.declare()
	a.substituteDefines()
	a.resolveReferences()
	a.buildEmissionOrder()
	a.CheckUniformWriteConflicts()

	return a, nil
}

func (a *Analysis) declare() {
	var nextID [kindCount]uint32
	for _, childIdx := range a.Tree.Children(a.Tree.Root) {
		node := a.Tree.Get(childIdx)
		if node.Kind == ast.Define {
			continue
		}
		if node.Kind != ast.Macro {
			continue
		}
		kind, ok := KindOf(node.Tok.Text)
		if !ok {
			a.Diagnostics.Fatalf("E-KIND", node.Tok.Offset, "unrecognized macro keyword %q", node.Tok.Text)
			continue
		}
		if _, dup := a.tables[kind][node.Name]; dup {
			a.Diagnostics.Fatalf("E-DUP", node.Tok.Offset, "duplicate %s declaration %q", kind, node.Name)
			continue
		}
		pool := uint32(1)
		if kind == KindBuffer {
			pool = a.poolSizeOf(childIdx)
		}
		sym := &Symbol{Name: node.Name, NodeIndex: childIdx, ID: nextID[kind], Kind: kind, Pool: pool}
		a.tables[kind][node.Name] = sym
		a.order[kind] = append(a.order[kind], sym)
		nextID[kind] += pool
	}
}

// poolSizeOf reads a #buffer declaration's `pool=N` property (spec.md
// §3.6, §4.9.3): N physical sub-buffers backing one declared name, for
// ping-pong selection at bind-group resolution time. Absent or
// unparseable, the buffer is not pooled (N=1).
func (a *Analysis) poolSizeOf(declIdx int) uint32 {
	for _, p := range a.Tree.Children(declIdx) {
		prop := a.Tree.Get(p)
		if prop.Kind != ast.Property || prop.Name != "pool" {
			continue
		}
		vals := a.Tree.Children(p)
		if len(vals) == 0 {
			continue
		}
		val := a.Tree.Get(vals[0])
		n, err := strconv.ParseUint(val.Tok.Text, 10, 32)
		if err != nil {
			return 1
		}
		return common.Coalesce(uint32(n), 1)
	}
	return 1
}

func (a *Analysis) substituteDefines() {
	for _, childIdx := range a.Tree.Children(a.Tree.Root) {
		node := a.Tree.Get(childIdx)
		if node.Kind != ast.Define {
			continue
		}
		children := a.Tree.Children(childIdx)
		if len(children) == 0 {
			continue
		}
		val := a.Tree.Get(children[0])
		a.Defines[node.Name] = val.Tok.Text
	}

	for _, sym := range a.order[KindWgsl] {
		props := a.Tree.Children(sym.NodeIndex)
		for _, p := range props {
			prop := a.Tree.Get(p)
			if prop.Name != "source" {
				continue
			}
			valChildren := a.Tree.Children(p)
			if len(valChildren) == 0 {
				continue
			}
			val := a.Tree.Get(valChildren[0])
			src := val.Tok.Text
			for name, repl := range a.Defines {
				src = defineUseRe(name).ReplaceAllString(src, repl)
			}
			a.SubstitutedWGSL[sym.Name] = src
		}
	}
}

func (a *Analysis) resolveReferences() {
	for k := Kind(0); k < kindCount; k++ {
		for _, sym := range a.order[k] {
			a.walkProperties(sym, sym.NodeIndex)
		}
	}
}

func (a *Analysis) walkProperties(owner *Symbol, idx int) {
	for _, childIdx := range a.Tree.Children(idx) {
		child := a.Tree.Get(childIdx)
		switch child.Kind {
		case ast.Property:
			a.walkPropertyValue(owner, childIdx, child.Name)
		case ast.Object, ast.Array:
			a.walkProperties(owner, childIdx)
		}
	}
}

func (a *Analysis) walkPropertyValue(owner *Symbol, propIdx int, key string) {
	valChildren := a.Tree.Children(propIdx)
	if len(valChildren) == 0 {
		return
	}
	valIdx := valChildren[0]
	val := a.Tree.Get(valIdx)

	switch val.Kind {
	case ast.Ref:
		target, ok := a.ResolveRef(val.Name)
		_ = target
		if !ok {
			a.Diagnostics.Fatalf("E-RESOLVE", val.Tok.Offset, "%q references undeclared name %q", owner.Name, val.Name)
			return
		}
		for k := Kind(0); k < kindCount; k++ {
			if sym, ok := a.tables[k][val.Name]; ok {
				a.ResolvedRefs[valIdx] = sym
				break
			}
		}
	case ast.Scalar:
		if _, isEnum, err := descriptor.LookupEnum(key, val.Name); isEnum && err != nil {
			a.Diagnostics.Fatalf("E-ENUM", val.Tok.Offset, "%s", err.Error())
		}
	case ast.Object, ast.Array:
		a.walkProperties(owner, valIdx)
	}
}

// emissionKinds lists the kinds participating in the dependency-ordered
// preamble, in spec declaration order. Queue/Init/Frame are excluded:
// they hold ordered action sequences, not single creatable resources.
var emissionKinds = []Kind{
	KindData, KindWgsl, KindSampler, KindTexture, KindTextureView, KindBuffer,
	KindBindGroupLayout, KindPipelineLayout, KindRenderPipeline, KindComputePipeline,
	KindBindGroup, KindQuerySet, KindRenderPass, KindComputePass,
}

func (a *Analysis) buildEmissionOrder() {
	var nodes []int
	inDegree := map[int]int{}
	dependents := map[int][]int{}

	for _, k := range emissionKinds {
		for _, sym := range a.order[k] {
			nodes = append(nodes, sym.NodeIndex)
			inDegree[sym.NodeIndex] = 0
		}
	}

	nodeSet := map[int]bool{}
	for _, n := range nodes {
		nodeSet[n] = true
	}

	for _, n := range nodes {
		for refIdx, target := range a.referencesWithin(n) {
			_ = refIdx
			if nodeSet[target.NodeIndex] {
				dependents[target.NodeIndex] = append(dependents[target.NodeIndex], n)
				inDegree[n]++
			}
		}
	}

	var ready []int
	for _, n := range nodes {
		if inDegree[n] == 0 {
			ready = append(ready, n)
		}
	}
	sort.Ints(ready)

	var order []int
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		next := append([]int{}, dependents[n]...)
		sort.Ints(next)
		for _, d := range next {
			inDegree[d]--
			if inDegree[d] == 0 {
				ready = append(ready, d)
				sort.Ints(ready)
			}
		}
	}

	if len(order) != len(nodes) {
		a.Diagnostics.Fatalf("E-CYCLE", 0, "cyclic dependency among declarations")
		return
	}
	a.EmissionOrder = order
}

// referencesWithin returns every Ref node found anywhere in declIdx's
// property tree, mapped to the Symbol it resolved to.
func (a *Analysis) referencesWithin(declIdx int) map[int]*Symbol {
	out := map[int]*Symbol{}
	var walk func(int)
	walk = func(idx int) {
		for _, c := range a.Tree.Children(idx) {
			n := a.Tree.Get(c)
			if n.Kind == ast.Ref {
				if sym, ok := a.ResolvedRefs[c]; ok {
					out[c] = sym
				}
				continue
			}
			walk(c)
		}
	}
	walk(declIdx)
	return out
}
