package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/pngine/compiler/ast"
	"github.com/Carmen-Shannon/pngine/compiler/lexer"
	"github.com/Carmen-Shannon/pngine/compiler/parser"
)

func parse(t *testing.T, src string) *ast.Tree {
	t.Helper()
	toks, err := lexer.New(src).All()
	assert.NoError(t, err)
	tree, err := parser.New(toks).Parse()
	assert.NoError(t, err)
	return tree
}

func TestParser_SimpleMacro(t *testing.T) {
	tree := parse(t, `#buffer myBuf {
		size = 256
		usage = [storage, copyDst]
	}`)
	root := tree.Get(tree.Root)
	children := tree.Children(tree.Root)
	assert.Equal(t, ast.File, root.Kind)
	assert.Len(t, children, 1)

	macro := tree.Get(children[0])
	assert.Equal(t, ast.Macro, macro.Kind)
	assert.Equal(t, "myBuf", macro.Name)
	assert.Equal(t, "#buffer", macro.Tok.Text)

	props := tree.Children(children[0])
	assert.Len(t, props, 2)
	sizeProp := tree.Get(props[0])
	assert.Equal(t, "size", sizeProp.Name)
	usageProp := tree.Get(props[1])
	assert.Equal(t, "usage", usageProp.Name)

	usageVal := tree.Children(props[1])[0]
	assert.Equal(t, ast.Array, tree.Get(usageVal).Kind)
	assert.Len(t, tree.Children(usageVal), 2)
}

func TestParser_ReferenceValue(t *testing.T) {
	tree := parse(t, `#bindGroup bg {
		layout = @myLayout
	}`)
	macro := tree.Children(tree.Root)[0]
	prop := tree.Children(macro)[0]
	val := tree.Get(tree.Children(prop)[0])
	assert.Equal(t, ast.Ref, val.Kind)
	assert.Equal(t, "myLayout", val.Name)
}

func TestParser_NestedObject(t *testing.T) {
	tree := parse(t, `#renderPass rp {
		colorAttachment = {
			view = @target
			loadOp = clear
		}
	}`)
	macro := tree.Children(tree.Root)[0]
	prop := tree.Children(macro)[0]
	obj := tree.Get(tree.Children(prop)[0])
	assert.Equal(t, ast.Object, obj.Kind)
	assert.Len(t, tree.Children(tree.Children(prop)[0]), 2)
}

func TestParser_Define(t *testing.T) {
	tree := parse(t, `#define PI 3.14159`)
	def := tree.Get(tree.Children(tree.Root)[0])
	assert.Equal(t, ast.Define, def.Kind)
	assert.Equal(t, "PI", def.Name)
}

func TestParser_MissingBraceError(t *testing.T) {
	toks, err := lexer.New(`#buffer myBuf size = 256`).All()
	assert.NoError(t, err)
	_, err = parser.New(toks).Parse()
	assert.Error(t, err)
	var perr *parser.Error
	assert.ErrorAs(t, err, &perr)
}

func TestParser_UnterminatedArrayError(t *testing.T) {
	toks, err := lexer.New(`#buffer b { usage = [storage, copyDst }`).All()
	assert.NoError(t, err)
	_, err = parser.New(toks).Parse()
	assert.Error(t, err)
}
