package model

import "fmt"

// Variant selects the tagging convention and the output record shape.
type Variant int

const (
	// VariantSchema recognises Q(...) lines and MP_QSTR_ references and emits
	// QDEF records carrying hash and length prefixed bytes.
	VariantSchema Variant = iota
	// VariantBare recognises MP_QSTR_ references only and emits Q(...) markers.
	VariantBare
)

func (v Variant) String() string {
	switch v {
	case VariantSchema:
		return "schema"
	case VariantBare:
		return "bare"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}
