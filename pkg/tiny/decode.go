package tiny

import (
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/vito/tiny/pkg/ast"
	"gopkg.in/yaml.v3"
)

// DecodeExpr builds an expression tree from its YAML form:
//
//	42                      constant
//	x                       variable
//	{const: 42}             constant
//	{var: x}                variable
//	{add: [l, r]}           l + r
//	{mul: [l, r]}           l * r
//	{let: x, be: e, in: b}  let x = e in b
//
// Every node records the line and column it was decoded from.
func DecodeExpr(filename string, data []byte) (ast.Expr, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", filename)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.Errorf("%s: empty document", filename)
	}
	d := &decoder{filename: filename}
	return d.expr(doc.Content[0])
}

// LoadExprFile reads and decodes a tree file, returning its contents for
// error reporting.
func LoadExprFile(path string) (ast.Expr, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrap(err, "reading tree file")
	}
	expr, err := DecodeExpr(path, data)
	if err != nil {
		return nil, string(data), err
	}
	return expr, string(data), nil
}

// DecodeError points at the YAML node that could not be decoded.
type DecodeError struct {
	Message string
	Loc     *ast.SourceLocation
}

func (e *DecodeError) Error() string {
	return e.Loc.String() + ": " + e.Message
}

func (e *DecodeError) GetSourceLocation() *ast.SourceLocation {
	return e.Loc
}

type decoder struct {
	filename string
}

func (d *decoder) loc(n *yaml.Node) *ast.SourceLocation {
	length := len(n.Value)
	if n.Kind != yaml.ScalarNode {
		length = 1
	}
	return &ast.SourceLocation{
		Filename: d.filename,
		Line:     n.Line,
		Column:   n.Column,
		Length:   length,
	}
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...any) error {
	return &DecodeError{
		Message: errors.Errorf(format, args...).Error(),
		Loc:     d.loc(n),
	}
}

func (d *decoder) expr(n *yaml.Node) (ast.Expr, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return d.expr(n.Alias)
	case yaml.ScalarNode:
		return d.scalar(n)
	case yaml.MappingNode:
		return d.mapping(n)
	default:
		return nil, d.errorf(n, "expected an expression, got a %s", kindName(n.Kind))
	}
}

func (d *decoder) scalar(n *yaml.Node) (ast.Expr, error) {
	switch n.ShortTag() {
	case "!!int":
		return d.constant(n)
	case "!!str":
		return d.variable(n)
	default:
		return nil, d.errorf(n, "expected an integer or a variable name, got %s", n.ShortTag())
	}
}

func (d *decoder) constant(n *yaml.Node) (*ast.Constant, error) {
	var v int64
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!int" || n.Decode(&v) != nil {
		return nil, d.errorf(n, "expected an integer constant")
	}
	return &ast.Constant{Value: v, Loc: d.loc(n)}, nil
}

func (d *decoder) variable(n *yaml.Node) (*ast.Variable, error) {
	name, err := d.name(n)
	if err != nil {
		return nil, err
	}
	return &ast.Variable{Name: name, Loc: d.loc(n)}, nil
}

func (d *decoder) name(n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" || strings.TrimSpace(n.Value) == "" {
		return "", d.errorf(n, "expected a variable name")
	}
	return n.Value, nil
}

func (d *decoder) mapping(n *yaml.Node) (ast.Expr, error) {
	fields := map[string]*yaml.Node{}
	var keys []string
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if _, dup := fields[key]; dup {
			return nil, d.errorf(n.Content[i], "duplicate key %q", key)
		}
		fields[key] = n.Content[i+1]
		keys = append(keys, key)
	}
	sort.Strings(keys)

	switch strings.Join(keys, ",") {
	case "const":
		return d.constant(fields["const"])
	case "var":
		return d.variable(fields["var"])
	case "add":
		return d.binary(n, ast.Add, fields["add"])
	case "mul":
		return d.binary(n, ast.Multiply, fields["mul"])
	case "be,in,let":
		return d.let(n, fields)
	default:
		return nil, d.errorf(n, "unrecognized expression with keys %v", keys)
	}
}

func (d *decoder) binary(n *yaml.Node, op ast.Operator, operands *yaml.Node) (ast.Expr, error) {
	if operands.Kind != yaml.SequenceNode || len(operands.Content) != 2 {
		return nil, d.errorf(operands, "%s takes exactly two operands", op)
	}
	left, err := d.expr(operands.Content[0])
	if err != nil {
		return nil, err
	}
	right, err := d.expr(operands.Content[1])
	if err != nil {
		return nil, err
	}
	return &ast.BinaryOp{Op: op, Left: left, Right: right, Loc: d.loc(n)}, nil
}

func (d *decoder) let(n *yaml.Node, fields map[string]*yaml.Node) (ast.Expr, error) {
	name, err := d.name(fields["let"])
	if err != nil {
		return nil, err
	}
	bound, err := d.expr(fields["be"])
	if err != nil {
		return nil, err
	}
	body, err := d.expr(fields["in"])
	if err != nil {
		return nil, err
	}
	return &ast.Let{Name: name, Bound: bound, Body: body, Loc: d.loc(n)}, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "node"
	}
}
