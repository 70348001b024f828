// Package codegen turns annotated variant declarations into dispatch code.
//
// A dispatch set is declared as a sealed interface carrying an opz:dispatch
// directive, with one struct per variant carrying an opz:handler directive:
//
//	//opz:dispatch mut=Canvas
//	type Op interface{ isOp() }
//
//	//opz:handler applyForward
//	type Forward struct{ Dist float64 }
//
// Scan extracts the dispatch model from a package's syntax trees; Emit
// renders the generated file: the marker method and an Execute, ExecuteWith
// or ExecuteWithMut method per variant, each forwarding the variant's
// payload fields and the shared context argument to the named handler.
// Load wires both to golang.org/x/tools/go/packages for the opzgen CLI.
package codegen

import "strings"

// Flavor selects which opz capability a dispatch set implements, mirroring
// the three context-passing modes of the runtime contract.
type Flavor int

const (
	// FlavorExecute dispatches with no shared argument.
	FlavorExecute Flavor = iota
	// FlavorWith dispatches with the shared argument passed by value.
	FlavorWith
	// FlavorMut dispatches with the shared argument passed by pointer.
	FlavorMut
)

// Method returns the interface method name generated for this flavor.
func (f Flavor) Method() string {
	switch f {
	case FlavorWith:
		return "ExecuteWith"
	case FlavorMut:
		return "ExecuteWithMut"
	default:
		return "Execute"
	}
}

// Variant is one operation of a dispatch set: a struct type, its handler,
// and the payload field names threaded into the handler call in declaration
// order.
type Variant struct {
	TypeName string
	Handler  string
	Fields   []string
}

// Dispatch is the extracted model of one annotated variant set.
type Dispatch struct {
	// TypeName is the sealed interface's name.
	TypeName string
	// Marker is the interface's single unexported method, emitted on every
	// variant to establish membership.
	Marker string
	// Flavor selects the generated method and its signature.
	Flavor Flavor
	// Arg is the shared context type identifier. Empty for FlavorExecute.
	Arg string
	// Variants in source declaration order.
	Variants []Variant
}

// FileName returns the default output file name for this dispatch set,
// following the stringer convention of deriving it from the type name.
func (d Dispatch) FileName() string {
	return strings.ToLower(d.TypeName) + "_dispatch.go"
}
