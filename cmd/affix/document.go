package main

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/hengadev/errsx"
	"github.com/urfave/cli/v2"

	"github.com/hengadev/affix"
)

// document describes, for one run, the same set of fields twice: once with
// their affix tags and once as plain values.
type document struct {
	names   []string
	affixed reflect.Type
	plain   reflect.Type
}

// goField names the struct field holding the i-th document field; document
// names need not be Go identifiers.
func goField(i int) string {
	return fmt.Sprintf("F%d", i)
}

// parseFields builds the document types from NAME:TYPE:TAG specifications.
func parseFields(specs []string) (document, error) {
	affixed := make([]reflect.StructField, 0, len(specs))
	plain := make([]reflect.StructField, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	names := make([]string, 0, len(specs))

	for i, spec := range specs {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
			return document{}, fmt.Errorf("invalid field '%s': expected NAME:TYPE:TAG", spec)
		}
		name, typeName, tag := parts[0], parts[1], parts[2]
		if strings.ContainsAny(name, "\"` ,") {
			return document{}, fmt.Errorf("invalid field '%s': name cannot contain quotes, spaces or commas", spec)
		}
		if seen[name] {
			return document{}, fmt.Errorf("invalid field '%s': duplicate name '%s'", spec, name)
		}
		seen[name] = true
		names = append(names, name)

		t, ok := scalarTypes[typeName]
		if !ok {
			return document{}, fmt.Errorf("%w: field '%s' has type %s", affix.ErrUnsupportedType, name, typeName)
		}

		names := fmt.Sprintf(`json:"%s" yaml:"%s"`, name, name)
		plain = append(plain, reflect.StructField{
			Name: goField(i),
			Type: t,
			Tag:  reflect.StructTag(names),
		})
		affixed = append(affixed, reflect.StructField{
			Name: goField(i),
			Type: t,
			Tag:  reflect.StructTag(fmt.Sprintf(`%s %s:%q`, names, affix.StructTag, tag)),
		})
	}

	return document{names: names, affixed: reflect.StructOf(affixed), plain: reflect.StructOf(plain)}, nil
}

// convert decodes the input as from, copies every field and encodes the
// result as to.
func (s *session) convert(c *cli.Context, from, to func(d document) reflect.Type) error {
	doc, err := parseFields(c.StringSlice("field"))
	if err != nil {
		return err
	}
	proc, err := s.config.Processor(affix.WithLogger(s.logger))
	if err != nil {
		return err
	}

	data, err := io.ReadAll(s.in)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	src := reflect.New(from(doc))
	if err := proc.Unmarshal(data, src.Interface()); err != nil {
		return doc.rename(err)
	}

	dst := reflect.New(to(doc)).Elem()
	for i := range dst.NumField() {
		dst.Field(i).Set(src.Elem().Field(i))
	}

	out, err := proc.Marshal(dst.Interface())
	if err != nil {
		return doc.rename(err)
	}
	if proc.Format() == affix.FormatJSON && !bytes.HasSuffix(out, []byte("\n")) {
		out = append(out, '\n')
	}
	_, err = c.App.Writer.Write(out)
	return err
}

func (s *session) marshal(c *cli.Context) error {
	return s.convert(c,
		func(d document) reflect.Type { return d.plain },
		func(d document) reflect.Type { return d.affixed },
	)
}

func (s *session) unmarshal(c *cli.Context) error {
	return s.convert(c,
		func(d document) reflect.Type { return d.affixed },
		func(d document) reflect.Type { return d.plain },
	)
}

// rename keys per-field errors by document field name.
func (d document) rename(err error) error {
	fieldErrs := affix.FieldErrors(err)
	if fieldErrs == nil {
		return err
	}

	var errs errsx.Map
	for i, name := range d.names {
		if ferr, ok := fieldErrs[goField(i)]; ok {
			errs.Set(name, ferr)
		}
	}
	if errs.IsEmpty() {
		return err
	}
	return errs.AsError()
}
