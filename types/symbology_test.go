package types //nolint:revive // types is a valid package name

import "testing"

func TestParseSymbology(t *testing.T) {
	tests := []struct {
		in      string
		want    Symbology
		wantErr bool
	}{
		{"qr", SymbologyQR, false},
		{"QR_CODE", SymbologyQR, false},
		{"EAN-13", SymbologyEAN13, false},
		{"ean8", SymbologyEAN8, false},
		{"Code128", SymbologyCode128, false},
		{"code 39", SymbologyCode39, false},
		{"UPC-A", SymbologyUPCA, false},
		{"upc_e", SymbologyUPCE, false},
		{"ITF", SymbologyITF, false},
		{"codabar", SymbologyCodabar, false},
		{"DataMatrix", SymbologyDataMatrix, false},
		{"aztec", SymbologyAztec, false},
		{"pdf417", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSymbology(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSymbology(%q) expected error, got %q", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSymbology(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseSymbology(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAllSymbologies_ValidAndCopied(t *testing.T) {
	all := AllSymbologies()
	if len(all) != 11 {
		t.Fatalf("AllSymbologies() returned %d entries, want 11", len(all))
	}
	for _, s := range all {
		if !s.Valid() {
			t.Errorf("%q reported invalid", s)
		}
	}

	all[0] = "mutated"
	if AllSymbologies()[0] != SymbologyQR {
		t.Error("AllSymbologies() must return a copy")
	}
}

func TestSymbology_IsMatrix(t *testing.T) {
	if !SymbologyQR.IsMatrix() || !SymbologyAztec.IsMatrix() || !SymbologyDataMatrix.IsMatrix() {
		t.Error("2D symbologies should report IsMatrix")
	}
	if SymbologyEAN13.IsMatrix() || SymbologyCodabar.IsMatrix() {
		t.Error("linear symbologies should not report IsMatrix")
	}
}

func TestOutcomeConstructors(t *testing.T) {
	d := Decoded("ABC123", SymbologyQR)
	if d.Kind != OutcomeDecoded || d.Payload != "ABC123" || d.Symbology != SymbologyQR {
		t.Errorf("Decoded() = %+v", d)
	}
	if NotFound().Kind != OutcomeNotFound {
		t.Error("NotFound().Kind != OutcomeNotFound")
	}
	if f := Fault(errTest); f.Kind != OutcomeFault || f.Err != errTest {
		t.Errorf("Fault() = %+v", f)
	}
}

func TestLifecycleState_String(t *testing.T) {
	tests := map[LifecycleState]string{
		StateIdle:          "idle",
		StateRunning:       "running",
		StateStopping:      "stopping",
		LifecycleState(42): "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("LifecycleState(%d).String() = %q, want %q", int(state), got, want)
		}
	}
}

type testError struct{}

func (testError) Error() string { return "test" }

var errTest error = testError{}
