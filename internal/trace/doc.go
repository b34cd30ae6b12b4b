// Package trace parses the memory-access records written by the emulator.
//
// # Record Formats
//
// Two line layouts are understood:
//
//	legacy: kind,address_hex,ignored,value_hex         kind = read | write
//	frame:  frame,kind,address_hex,value_hex,f5,f6,f7  kind = R | W
//
// FormatAuto picks the layout from the field count. Both kind vocabularies
// are normalized to Read and Write here, so nothing downstream needs to know
// which variant produced a record.
//
// # Error Handling
//
// ParseLine never panics. A line it cannot use yields a *ParseError carrying
// a Reason; the sentinel errors (ErrFieldCount, ErrKind, ...) match it with
// errors.Is. Callers are expected to drop the line and keep going.
package trace
