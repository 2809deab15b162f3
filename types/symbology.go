// Package types defines core domain types for the scanwatch engine.
package types

import (
	"fmt"
	"strings"
)

// Symbology identifies a machine-readable code encoding standard.
type Symbology string

// Supported symbologies.
const (
	SymbologyQR         Symbology = "qr"
	SymbologyEAN13      Symbology = "ean_13"
	SymbologyEAN8       Symbology = "ean_8"
	SymbologyCode128    Symbology = "code_128"
	SymbologyCode39     Symbology = "code_39"
	SymbologyUPCA       Symbology = "upc_a"
	SymbologyUPCE       Symbology = "upc_e"
	SymbologyITF        Symbology = "itf"
	SymbologyCodabar    Symbology = "codabar"
	SymbologyDataMatrix Symbology = "data_matrix"
	SymbologyAztec      Symbology = "aztec"
)

// allSymbologies is ordered: 2D matrix codes first, then linear codes.
var allSymbologies = []Symbology{
	SymbologyQR,
	SymbologyDataMatrix,
	SymbologyAztec,
	SymbologyEAN13,
	SymbologyEAN8,
	SymbologyUPCA,
	SymbologyUPCE,
	SymbologyCode128,
	SymbologyCode39,
	SymbologyITF,
	SymbologyCodabar,
}

// AllSymbologies returns every supported symbology in canonical order.
func AllSymbologies() []Symbology {
	out := make([]Symbology, len(allSymbologies))
	copy(out, allSymbologies)
	return out
}

// Valid returns true if s is a supported symbology.
func (s Symbology) Valid() bool {
	for _, known := range allSymbologies {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the wire name of the symbology.
func (s Symbology) String() string {
	return string(s)
}

// IsMatrix returns true for 2D matrix symbologies.
func (s Symbology) IsMatrix() bool {
	return s == SymbologyQR || s == SymbologyDataMatrix || s == SymbologyAztec
}

// ParseSymbology parses a symbology name.
// Accepts the wire name plus common spellings ("EAN-13", "Code128", "QR_CODE").
func ParseSymbology(name string) (Symbology, error) {
	norm := strings.ToLower(strings.TrimSpace(name))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)

	switch norm {
	case "qr", "qr_code", "qrcode":
		return SymbologyQR, nil
	case "ean_13", "ean13":
		return SymbologyEAN13, nil
	case "ean_8", "ean8":
		return SymbologyEAN8, nil
	case "code_128", "code128":
		return SymbologyCode128, nil
	case "code_39", "code39":
		return SymbologyCode39, nil
	case "upc_a", "upca":
		return SymbologyUPCA, nil
	case "upc_e", "upce":
		return SymbologyUPCE, nil
	case "itf", "itf_14", "interleaved_2_of_5":
		return SymbologyITF, nil
	case "codabar":
		return SymbologyCodabar, nil
	case "data_matrix", "datamatrix":
		return SymbologyDataMatrix, nil
	case "aztec":
		return SymbologyAztec, nil
	default:
		return "", fmt.Errorf("unknown symbology: %q", name)
	}
}
