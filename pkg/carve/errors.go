/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: errors.go
Description: Error kinds produced while carving. Every kind here is recoverable: the
carvers abandon the current candidate and keep scanning, so none of them reach the
caller of a scan.
*/

package carve

import (
	"errors"
	"fmt"
)

var (
	ErrNoMarker         = errors.New("carve: no marker found")
	ErrPathValidation   = errors.New("carve: path contains disallowed characters")
	ErrLengthMismatch   = errors.New("carve: length prefix does not match path length")
	ErrStructuralDecode = errors.New("carve: bytes do not decode as a schema record")
	ErrUnnamedRecord    = errors.New("carve: decoded record has no name")
	ErrDecompression    = errors.New("carve: malformed compressed stream")
	ErrOutputTooLarge   = fmt.Errorf("%w: decompressed output exceeds limit", ErrDecompression)
	ErrUnknownFormat    = errors.New("carve: unknown stream format")
)
