// Package tagcheck validates affix struct tags in Go source files without
// compiling them.
package tagcheck

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/hengadev/affix"
)

// Diagnostic is one problem found in a struct tag.
type Diagnostic struct {
	Pos     token.Position
	Field   string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: field '%s': %s", d.Pos, d.Field, d.Message)
}

// Validator checks affix tags. Named tags are resolved against the registry
// when one is set; without a registry only their syntax is checked, since
// codecs may be registered at run time.
type Validator struct {
	registry    *affix.Registry
	diagnostics []Diagnostic
}

// NewValidator creates a new tag validator. reg may be nil.
func NewValidator(reg *affix.Registry) *Validator {
	return &Validator{registry: reg}
}

// ValidateFile returns the diagnostics of one source file. The error is set
// only when the file cannot be parsed.
func (v *Validator) ValidateFile(filename string) ([]Diagnostic, error) {
	v.diagnostics = nil

	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filename, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filename, err)
	}

	ast.Inspect(node, func(n ast.Node) bool {
		if st, ok := n.(*ast.StructType); ok {
			v.validateStruct(fset, st)
		}
		return true
	})

	return v.diagnostics, nil
}

// ValidateDir validates every non-test Go file of dir, in lexical order.
func (v *Validator) ValidateDir(dir string) ([]Diagnostic, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)

	var all []Diagnostic
	for _, file := range files {
		diags, err := v.ValidateFile(file)
		if err != nil {
			return all, err
		}
		all = append(all, diags...)
	}
	return all, nil
}

func (v *Validator) validateStruct(fset *token.FileSet, st *ast.StructType) {
	if st.Fields == nil {
		return
	}
	for _, field := range st.Fields.List {
		if field.Tag != nil {
			v.validateField(fset, field)
		}
	}
}

func (v *Validator) validateField(fset *token.FileSet, field *ast.Field) {
	raw, err := strconv.Unquote(field.Tag.Value)
	if err != nil {
		return
	}
	tag, ok := reflect.StructTag(raw).Lookup(affix.StructTag)
	if !ok || tag == "-" {
		return
	}

	pos := fset.Position(field.Pos())
	if len(field.Names) == 0 {
		v.add(pos, typeString(field.Type), "embedded fields cannot carry an affix tag")
		return
	}

	for _, name := range field.Names {
		if !name.IsExported() {
			v.add(pos, name.Name, "unexported fields cannot carry an affix tag")
			continue
		}
		if msg := v.checkTag(tag); msg != "" {
			v.add(pos, name.Name, msg)
			continue
		}
		if !scalarCandidate(field.Type) {
			v.add(pos, name.Name, fmt.Sprintf("type %s cannot be affixed, only scalar fields can", typeString(field.Type)))
		}
	}
}

func (v *Validator) checkTag(tag string) string {
	if v.registry == nil && tag != "" && !strings.Contains(tag, "=") {
		return ""
	}
	if _, err := affix.ParseTag(tag, v.registry); err != nil {
		return err.Error()
	}
	return ""
}

func (v *Validator) add(pos token.Position, field, message string) {
	v.diagnostics = append(v.diagnostics, Diagnostic{Pos: pos, Field: field, Message: message})
}

// scalarCandidate rejects the types that can never be affixed. Named types
// are accepted since their underlying type is unknown without type checking.
func scalarCandidate(expr ast.Expr) bool {
	switch t := expr.(type) {
	case *ast.StarExpr:
		if _, nested := t.X.(*ast.StarExpr); nested {
			return false
		}
		return scalarCandidate(t.X)
	case *ast.Ident, *ast.SelectorExpr:
		return true
	default:
		return false
	}
}

func typeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return typeString(t.X) + "." + t.Sel.Name
	case *ast.StarExpr:
		return "*" + typeString(t.X)
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + typeString(t.Elt)
		}
		return "[...]" + typeString(t.Elt)
	case *ast.MapType:
		return "map[" + typeString(t.Key) + "]" + typeString(t.Value)
	case *ast.StructType:
		return "struct{...}"
	case *ast.InterfaceType:
		return "interface{...}"
	case *ast.FuncType:
		return "func(...)"
	case *ast.ChanType:
		return "chan " + typeString(t.Value)
	default:
		return fmt.Sprintf("%T", expr)
	}
}
