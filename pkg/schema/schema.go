/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: schema.go
Description: Data model for recovered schema records. A Record describes one schema
file (package, imports, enums, messages and services) exactly as it was decoded from
an embedded descriptor. Declaration order is preserved everywhere because the rendered
output depends on it.
*/

package schema

import "fmt"

// ExtensionRangeMax is the end value that marks an unbounded extension range.
const ExtensionRangeMax int32 = 1 << 29

// Optional carries a value together with an explicit presence flag.
// A zero Optional is unset, so presence never depends on the value itself.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an unset Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value is present.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// OrElse returns the value if set, otherwise fallback.
func (o Optional[T]) OrElse(fallback T) T {
	if o.set {
		return o.value
	}
	return fallback
}

// Label is the cardinality of a field.
type Label int32

const (
	LabelOptional Label = 1
	LabelRequired Label = 2
	LabelRepeated Label = 3
)

// String returns the keyword used for the label in interface-definition text
func (l Label) String() string {
	switch l {
	case LabelOptional:
		return "optional"
	case LabelRequired:
		return "required"
	case LabelRepeated:
		return "repeated"
	default:
		return fmt.Sprintf("label_%d", int32(l))
	}
}

// Kind is the declared type of a field. The numeric values match the
// descriptor encoding so decoded values map over without translation.
type Kind int32

const (
	KindDouble   Kind = 1
	KindFloat    Kind = 2
	KindInt64    Kind = 3
	KindUint64   Kind = 4
	KindInt32    Kind = 5
	KindFixed64  Kind = 6
	KindFixed32  Kind = 7
	KindBool     Kind = 8
	KindString   Kind = 9
	KindGroup    Kind = 10
	KindMessage  Kind = 11
	KindBytes    Kind = 12
	KindUint32   Kind = 13
	KindEnum     Kind = 14
	KindSfixed32 Kind = 15
	KindSfixed64 Kind = 16
	KindSint32   Kind = 17
	KindSint64   Kind = 18
)

// scalarKeywords holds the 15 canonical scalar kinds.
var scalarKeywords = map[Kind]string{
	KindDouble:   "double",
	KindFloat:    "float",
	KindInt64:    "int64",
	KindUint64:   "uint64",
	KindInt32:    "int32",
	KindFixed64:  "fixed64",
	KindFixed32:  "fixed32",
	KindBool:     "bool",
	KindString:   "string",
	KindBytes:    "bytes",
	KindUint32:   "uint32",
	KindSfixed32: "sfixed32",
	KindSfixed64: "sfixed64",
	KindSint32:   "sint32",
	KindSint64:   "sint64",
}

// IsScalar reports whether k is one of the canonical scalar kinds.
func (k Kind) IsScalar() bool {
	_, ok := scalarKeywords[k]
	return ok
}

// IsReference reports whether fields of this kind name another type.
func (k Kind) IsReference() bool {
	return k == KindMessage || k == KindEnum || k == KindGroup
}

// String returns the scalar keyword, or a descriptive name for reference kinds.
func (k Kind) String() string {
	if kw, ok := scalarKeywords[k]; ok {
		return kw
	}
	switch k {
	case KindGroup:
		return "group"
	case KindMessage:
		return "message"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("unknown_%d", int32(k))
	}
}

// Record is one recovered schema file.
type Record struct {
	Name         string
	Package      Optional[string]
	Dependencies []string
	Enums        []EnumDef
	Messages     []MessageDef
	Services     []ServiceDef
}

// Valid reports whether the record carries a name. Nameless records are
// treated as not found and never rendered.
func (r *Record) Valid() bool {
	return r != nil && r.Name != ""
}

// MessageDef is a message declaration, possibly nested.
type MessageDef struct {
	Name            string
	Nested          []MessageDef
	Enums           []EnumDef
	Fields          []FieldDef
	ExtensionRanges []ExtensionRange
	Extensions      []FieldDef
}

// FieldDef is a single field or extension declaration.
type FieldDef struct {
	Name     string
	Label    Label
	Kind     Kind
	TypeName string // referenced type for message, enum and group kinds
	Number   int32
	Default  Optional[string]
	Extendee string // extended type, set only for extensions
}

// TypeRef returns the text used for the field's type: the scalar keyword
// or the referenced type name.
func (f FieldDef) TypeRef() string {
	if f.Kind.IsReference() {
		return f.TypeName
	}
	return f.Kind.String()
}

// ExtensionRange is a half-open range of extension numbers.
type ExtensionRange struct {
	Start int32
	End   int32
}

// Unbounded reports whether the range extends to the maximum field number.
func (r ExtensionRange) Unbounded() bool {
	return r.End == ExtensionRangeMax
}

// EnumDef is an enum declaration.
type EnumDef struct {
	Name   string
	Values []EnumValue
}

// EnumValue is one named enum constant.
type EnumValue struct {
	Name   string
	Number int32
}

// ServiceDef is a service declaration.
type ServiceDef struct {
	Name    string
	Methods []MethodDef
}

// MethodDef is one rpc of a service.
type MethodDef struct {
	Name       string
	InputType  string
	OutputType string
}
