/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: descriptor.go
Description: Conversion from decoded descriptor messages into the Record model.
Presence of optional attributes is taken from the descriptor's own field presence,
never from comparing a value against its zero default.
*/

package schema

import (
	"google.golang.org/protobuf/types/descriptorpb"
)

// FromDescriptor converts a decoded file descriptor into a Record.
// It returns nil for a nil descriptor.
func FromDescriptor(fd *descriptorpb.FileDescriptorProto) *Record {
	if fd == nil {
		return nil
	}

	rec := &Record{
		Name:         fd.GetName(),
		Dependencies: append([]string(nil), fd.GetDependency()...),
	}
	if fd.Package != nil {
		rec.Package = Some(fd.GetPackage())
	}

	for _, e := range fd.GetEnumType() {
		rec.Enums = append(rec.Enums, enumFromDescriptor(e))
	}
	for _, m := range fd.GetMessageType() {
		rec.Messages = append(rec.Messages, messageFromDescriptor(m))
	}
	for _, s := range fd.GetService() {
		rec.Services = append(rec.Services, serviceFromDescriptor(s))
	}

	return rec
}

func messageFromDescriptor(m *descriptorpb.DescriptorProto) MessageDef {
	msg := MessageDef{Name: m.GetName()}

	for _, nested := range m.GetNestedType() {
		msg.Nested = append(msg.Nested, messageFromDescriptor(nested))
	}
	for _, e := range m.GetEnumType() {
		msg.Enums = append(msg.Enums, enumFromDescriptor(e))
	}
	for _, f := range m.GetField() {
		msg.Fields = append(msg.Fields, fieldFromDescriptor(f))
	}
	for _, r := range m.GetExtensionRange() {
		msg.ExtensionRanges = append(msg.ExtensionRanges, ExtensionRange{
			Start: r.GetStart(),
			End:   r.GetEnd(),
		})
	}
	for _, ext := range m.GetExtension() {
		msg.Extensions = append(msg.Extensions, fieldFromDescriptor(ext))
	}

	return msg
}

func fieldFromDescriptor(f *descriptorpb.FieldDescriptorProto) FieldDef {
	field := FieldDef{
		Name:     f.GetName(),
		Label:    Label(f.GetLabel()),
		Kind:     Kind(f.GetType()),
		TypeName: f.GetTypeName(),
		Number:   f.GetNumber(),
		Extendee: f.GetExtendee(),
	}
	if f.DefaultValue != nil {
		field.Default = Some(f.GetDefaultValue())
	}
	return field
}

func enumFromDescriptor(e *descriptorpb.EnumDescriptorProto) EnumDef {
	enum := EnumDef{Name: e.GetName()}
	for _, v := range e.GetValue() {
		enum.Values = append(enum.Values, EnumValue{Name: v.GetName(), Number: v.GetNumber()})
	}
	return enum
}

func serviceFromDescriptor(s *descriptorpb.ServiceDescriptorProto) ServiceDef {
	svc := ServiceDef{Name: s.GetName()}
	for _, m := range s.GetMethod() {
		svc.Methods = append(svc.Methods, MethodDef{
			Name:       m.GetName(),
			InputType:  m.GetInputType(),
			OutputType: m.GetOutputType(),
		})
	}
	return svc
}
