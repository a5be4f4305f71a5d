package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/perbu/rxlint/pkg/ast"
)

// FormatVersion is embedded in every layer-2 payload. A Decode against
// a payload written by a different version discards it rather than
// risking a misread AST; nothing here requires the format to be stable
// across versions, only self-describing.
const FormatVersion uint32 = 1

func init() {
	gob.Register(&ast.Regex{})
	gob.Register(&ast.Sequence{})
	gob.Register(&ast.Alternation{})
	gob.Register(&ast.Literal{})
	gob.Register(&ast.Dot{})
	gob.Register(&ast.Anchor{})
	gob.Register(&ast.Assertion{})
	gob.Register(&ast.CharType{})
	gob.Register(&ast.CharClass{})
	gob.Register(&ast.ClassOperation{})
	gob.Register(&ast.Range{})
	gob.Register(&ast.PosixClass{})
	gob.Register(&ast.UnicodeProp{})
	gob.Register(&ast.CharLiteral{})
	gob.Register(&ast.ControlChar{})
	gob.Register(&ast.Backref{})
	gob.Register(&ast.Subroutine{})
	gob.Register(&ast.Group{})
	gob.Register(&ast.Conditional{})
	gob.Register(&ast.Define{})
	gob.Register(&ast.Quantifier{})
	gob.Register(&ast.Comment{})
	gob.Register(&ast.PcreVerb{})
	gob.Register(&ast.Keep{})
	gob.Register(&ast.Callout{})
}

// envelope pairs a version tag with the node so Decode can reject a
// payload from an incompatible FormatVersion before trusting its
// contents.
type envelope struct {
	Version uint32
	Node    ast.Node
}

// Encode serializes node into an opaque layer-2 payload.
func Encode(node ast.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(envelope{Version: FormatVersion, Node: node}); err != nil {
		return nil, fmt.Errorf("cache: encoding ast: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode, failing closed (an error, never a partial
// node) on a version mismatch or corrupt payload.
func Decode(data []byte) (ast.Node, error) {
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, fmt.Errorf("cache: decoding ast: %w", err)
	}
	if env.Version != FormatVersion {
		return nil, fmt.Errorf("cache: payload version %d does not match %d", env.Version, FormatVersion)
	}
	return env.Node, nil
}
