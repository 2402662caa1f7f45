package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/pngine/compiler/lexer"
	"github.com/Carmen-Shannon/pngine/compiler/token"
)

func TestLexer_MacroKeywordsAndPunctuation(t *testing.T) {
	src := `#buffer myBuf {
		size = 256
		usage = [storage, copyDst]
	}`
	toks, err := lexer.New(src).All()
	assert.NoError(t, err)
	assert.Equal(t, token.Keyword, toks[0].Kind)
	assert.Equal(t, "#buffer", toks[0].Text)
	assert.Equal(t, token.Ident, toks[1].Kind)
	assert.Equal(t, "myBuf", toks[1].Text)
	assert.Equal(t, token.LBrace, toks[2].Kind)
	assert.Equal(t, token.EOF, toks[len(toks)-1].Kind)
}

func TestLexer_UnknownMacroKeyword(t *testing.T) {
	_, err := lexer.New(`#bogus foo {}`).All()
	assert.Error(t, err)
	var lexErr *lexer.Error
	assert.ErrorAs(t, err, &lexErr)
}

func TestLexer_DefineIsDistinctFromKeyword(t *testing.T) {
	toks, err := lexer.New(`#define FOO 1.0`).All()
	assert.NoError(t, err)
	assert.Equal(t, token.Define, toks[0].Kind)
}

func TestLexer_StringEscapes(t *testing.T) {
	toks, err := lexer.New(`"line one\nline two"`).All()
	assert.NoError(t, err)
	assert.Equal(t, token.String, toks[0].Kind)
	assert.Equal(t, "line one\nline two", toks[0].Text)
}

func TestLexer_UnterminatedString(t *testing.T) {
	_, err := lexer.New(`"never closed`).All()
	assert.Error(t, err)
}

func TestLexer_RawStringPreservesNewlines(t *testing.T) {
	src := "\"\"\"\n@group(0) @binding(0)\nvar<uniform> u: Uniforms;\n\"\"\""
	toks, err := lexer.New(src).All()
	assert.NoError(t, err)
	assert.Equal(t, token.RawString, toks[0].Kind)
	assert.Contains(t, toks[0].Text, "\n")
	assert.Contains(t, toks[0].Text, "@group(0)")
}

func TestLexer_ReferenceSigil(t *testing.T) {
	toks, err := lexer.New(`@myBuffer`).All()
	assert.NoError(t, err)
	assert.Equal(t, token.Reference, toks[0].Kind)
	assert.Equal(t, "myBuffer", toks[0].Text)
}

func TestLexer_NumbersIntAndFloat(t *testing.T) {
	toks, err := lexer.New(`42 -3 3.14 -0.5 1e10 2.5e-3`).All()
	assert.NoError(t, err)
	assert.Equal(t, token.Int, toks[0].Kind)
	assert.Equal(t, token.Int, toks[1].Kind)
	assert.Equal(t, token.Float, toks[2].Kind)
	assert.Equal(t, token.Float, toks[3].Kind)
	assert.Equal(t, token.Float, toks[4].Kind)
	assert.Equal(t, token.Float, toks[5].Kind)
}

func TestLexer_DottedPath(t *testing.T) {
	toks, err := lexer.New(`camera.view.matrix`).All()
	assert.NoError(t, err)
	assert.Equal(t, token.Ident, toks[0].Kind)
	assert.Equal(t, token.Dot, toks[1].Kind)
	assert.Equal(t, token.Ident, toks[2].Kind)
	assert.Equal(t, token.Dot, toks[3].Kind)
	assert.Equal(t, token.Ident, toks[4].Kind)
}

func TestLexer_LineCommentsSkipped(t *testing.T) {
	src := "// a comment\n#queue q {} // trailing"
	toks, err := lexer.New(src).All()
	assert.NoError(t, err)
	assert.Equal(t, token.Keyword, toks[0].Kind)
}

func TestLexer_UnrecognizedCharacter(t *testing.T) {
	_, err := lexer.New(`$`).All()
	assert.Error(t, err)
}
