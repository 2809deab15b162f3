package zxing

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/pithecene-io/scanwatch/decode"
	"github.com/pithecene-io/scanwatch/types"
)

func qrImage(t *testing.T, content string) image.Image {
	t.Helper()
	img, err := qrcode.NewQRCodeWriter().Encode(content, gozxing.BarcodeFormat_QR_CODE, 240, 240, nil)
	if err != nil {
		t.Fatalf("encode qr: %v", err)
	}
	return img
}

func blankImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img
}

func mustBackend(t *testing.T, syms []types.Symbology, tryHarder bool) *Backend {
	t.Helper()
	hints, err := decode.NewHints(syms, tryHarder)
	if err != nil {
		t.Fatalf("hints: %v", err)
	}
	b, err := New(hints)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestDecode_QR(t *testing.T) {
	b := mustBackend(t, []types.Symbology{types.SymbologyQR}, false)

	res, err := b.Decode(t.Context(), qrImage(t, "ABC123"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Payload != "ABC123" {
		t.Errorf("payload = %q, want ABC123", res.Payload)
	}
	if res.Symbology != types.SymbologyQR {
		t.Errorf("symbology = %q, want qr", res.Symbology)
	}
}

func TestDecode_Code128WithDefaultHints(t *testing.T) {
	img, err := oned.NewCode128Writer().Encode("SKU-42", gozxing.BarcodeFormat_CODE_128, 400, 120, nil)
	if err != nil {
		t.Fatalf("encode code128: %v", err)
	}

	b, err := New(decode.DefaultHints())
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	defer func() { _ = b.Close() }()

	res, err := b.Decode(t.Context(), img)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Payload != "SKU-42" || res.Symbology != types.SymbologyCode128 {
		t.Errorf("result = %+v, want SKU-42/code_128", res)
	}
}

func TestDecode_BlankFrameIsNotFound(t *testing.T) {
	b := mustBackend(t, types.AllSymbologies(), true)

	_, err := b.Decode(t.Context(), blankImage())
	if !errors.Is(err, decode.ErrNotFound) {
		t.Fatalf("err = %v, want decode.ErrNotFound", err)
	}
	if got := decode.Classify(decode.Result{}, err); got.Kind != types.OutcomeNotFound {
		t.Errorf("Classify kind = %v, want not_found", got.Kind)
	}
}

func TestDecode_QRNotInHints(t *testing.T) {
	b := mustBackend(t, []types.Symbology{types.SymbologyEAN13}, false)

	_, err := b.Decode(t.Context(), qrImage(t, "ABC123"))
	if !errors.Is(err, decode.ErrNotFound) {
		t.Fatalf("err = %v, want decode.ErrNotFound", err)
	}
}

func TestDecode_NilFrameIsFault(t *testing.T) {
	b := mustBackend(t, []types.Symbology{types.SymbologyQR}, false)

	_, err := b.Decode(t.Context(), nil)
	if err == nil || errors.Is(err, decode.ErrNotFound) {
		t.Fatalf("err = %v, want non-miss error", err)
	}
}

func TestClose_RejectsDecode(t *testing.T) {
	b := mustBackend(t, []types.Symbology{types.SymbologyQR}, false)

	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := b.Decode(t.Context(), qrImage(t, "ABC123")); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestNew_RequiresHints(t *testing.T) {
	if _, err := New(decode.Hints{}); err == nil {
		t.Error("expected error for zero hints")
	}
}

func TestFactory_ReturnsFreshBackends(t *testing.T) {
	hints := decode.DefaultHints()
	a, err := Factory(hints)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	b, err := Factory(hints)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if a == b {
		t.Error("Factory must return a new backend per acquisition")
	}
	_ = a.Close()
	_ = b.Close()
}
