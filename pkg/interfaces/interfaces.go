/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: interfaces.go
Description: Shared interfaces for protocarve. Defines the seams between the extraction
engine and the pieces it drives so they can be swapped and mocked in tests.
*/

package interfaces

import (
	"iter"

	"github.com/kleascm/protocarve/pkg/carve"
)

// Carver finds descriptor records inside an opaque blob
type Carver interface {
	// Scan lazily yields records in discovery order. Counters are added to
	// stats when it is not nil.
	Scan(blob []byte, stats *carve.Stats) iter.Seq[carve.Match]
}

// RecordSink receives rendered schema text
type RecordSink interface {
	// Emit writes the text of the record called name and returns where it
	// went. Errors are fatal for the run.
	Emit(name string, text []byte) (string, error)
}
