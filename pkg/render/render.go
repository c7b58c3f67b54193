/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: render.go
Description: Deterministic renderer that turns a recovered schema record back into
interface-definition text. Output uses one tab per nesting level. Enums come before
messages, which come before services, and order inside each category is preserved.
*/

package render

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kleascm/protocarve/pkg/schema"
)

// Render returns the interface-definition text for rec.
func Render(rec *schema.Record) string {
	var buf bytes.Buffer
	newPrinter(&buf).file(rec)
	return buf.String()
}

// WriteTo renders rec into w.
func WriteTo(w io.Writer, rec *schema.Record) error {
	var buf bytes.Buffer
	newPrinter(&buf).file(rec)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write rendered schema %q: %w", rec.Name, err)
	}
	return nil
}

// printer tracks indentation while emitting lines into a buffer
type printer struct {
	out    *bytes.Buffer
	indent int
}

func newPrinter(out *bytes.Buffer) *printer {
	return &printer{out: out}
}

// line writes the indentation followed by s.
func (p *printer) line(s string) {
	p.out.WriteString(strings.Repeat("\t", p.indent))
	p.out.WriteString(s)
}

func (p *printer) linef(format string, args ...interface{}) {
	p.line(fmt.Sprintf(format, args...))
}

func (p *printer) file(rec *schema.Record) {
	if pkg, ok := rec.Package.Get(); ok {
		p.linef("package %s;\n", pkg)
	}
	for _, dep := range rec.Dependencies {
		p.linef("import \"%s\";\n", dep)
	}
	p.line("\n")

	for _, enum := range rec.Enums {
		p.enum(enum)
	}
	for _, msg := range rec.Messages {
		p.line("\n")
		p.message(msg)
	}
	for _, svc := range rec.Services {
		p.line("\n")
		p.service(svc)
	}
}

func (p *printer) message(msg schema.MessageDef) {
	p.linef("message %s {\n", msg.Name)
	p.indent++

	for _, nested := range msg.Nested {
		p.message(nested)
	}
	for _, enum := range msg.Enums {
		p.enum(enum)
	}
	for _, field := range msg.Fields {
		p.field(field)
	}
	for _, r := range msg.ExtensionRanges {
		p.linef("extensions %d to %s;\n", r.Start, rangeEnd(r))
	}
	for _, ext := range msg.Extensions {
		p.extension(ext)
	}

	p.indent--
	p.line("}\n")
}

// rangeEnd renders the sentinel end value as "max".
func rangeEnd(r schema.ExtensionRange) string {
	if r.Unbounded() {
		return "max"
	}
	return strconv.FormatInt(int64(r.End), 10)
}

func (p *printer) extension(ext schema.FieldDef) {
	p.linef("extend %s {\n", ext.Extendee)
	p.indent++
	p.field(ext)
	p.indent--
	p.line("}\n")
}

func (p *printer) field(f schema.FieldDef) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s = %d", f.Label, f.TypeRef(), f.Name, f.Number)

	if def, ok := f.Default.Get(); ok {
		// string defaults are quoted, everything else is emitted as stored
		if f.Kind == schema.KindString {
			def = "\"" + def + "\""
		}
		fmt.Fprintf(&sb, " [default = %s]", def)
	}
	sb.WriteString(";\n")
	p.line(sb.String())
}

func (p *printer) enum(enum schema.EnumDef) {
	p.linef("enum %s {\n", enum.Name)
	p.indent++
	for _, v := range enum.Values {
		p.linef("%s = %d;\n", v.Name, v.Number)
	}
	p.indent--
	p.line("}\n")
}

func (p *printer) service(svc schema.ServiceDef) {
	p.linef("service %s {\n", svc.Name)
	p.indent++
	for _, m := range svc.Methods {
		p.linef("rpc %s (%s) returns (%s);\n", m.Name, m.InputType, m.OutputType)
	}
	p.indent--
	p.line("}\n")
}
