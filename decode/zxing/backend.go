// Package zxing implements decode.Backend on top of gozxing.
//
// Readers and the hint map are built once per acquired backend and reused
// for every frame. Reader-level misses (not found, checksum, format) across
// all readers collapse into decode.ErrNotFound, matching how a multi-format
// reader behaves on live video.
package zxing

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/pithecene-io/scanwatch/decode"
	"github.com/pithecene-io/scanwatch/types"
)

// Name is the backend dimension used in metrics and logs.
const Name = "zxing"

// ErrClosed is returned by Decode after Close.
var ErrClosed = errors.New("zxing: backend closed")

type entry struct {
	symbology types.Symbology
	reader    gozxing.Reader
}

// Backend is a gozxing-backed decode.Backend.
type Backend struct {
	mu      sync.Mutex
	readers []entry
	hints   map[gozxing.DecodeHintType]interface{}
	upcA    bool // report 0-prefixed EAN-13 as UPC-A
	closed  bool
}

// New builds a backend for hints.
func New(hints decode.Hints) (*Backend, error) {
	if hints.IsZero() {
		return nil, errors.New("zxing: hints are required")
	}

	b := &Backend{
		hints: make(map[gozxing.DecodeHintType]interface{}, 2),
	}

	formats := make([]gozxing.BarcodeFormat, 0, len(hints.Symbologies()))
	for _, s := range hints.Symbologies() {
		reader, format, ok := readerFor(s, hints)
		if !ok {
			continue
		}
		formats = append(formats, format)
		if reader != nil {
			b.readers = append(b.readers, entry{symbology: s, reader: reader})
		}
	}
	if len(b.readers) == 0 {
		return nil, errors.New("zxing: no readers for requested symbologies")
	}

	b.upcA = hints.Includes(types.SymbologyUPCA)
	b.hints[gozxing.DecodeHintType_POSSIBLE_FORMATS] = formats
	if hints.TryHarder() {
		b.hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	return b, nil
}

// Factory is a decode.Factory for this backend.
func Factory(hints decode.Hints) (decode.Backend, error) {
	return New(hints)
}

// readerFor returns the reader and format for s. A nil reader with ok=true
// means the format is covered by another symbology's reader.
func readerFor(s types.Symbology, hints decode.Hints) (gozxing.Reader, gozxing.BarcodeFormat, bool) {
	switch s {
	case types.SymbologyQR:
		return qrcode.NewQRCodeReader(), gozxing.BarcodeFormat_QR_CODE, true
	case types.SymbologyDataMatrix:
		return datamatrix.NewDataMatrixReader(), gozxing.BarcodeFormat_DATA_MATRIX, true
	case types.SymbologyAztec:
		return aztec.NewAztecReader(), gozxing.BarcodeFormat_AZTEC, true
	case types.SymbologyEAN13:
		return oned.NewEAN13Reader(), gozxing.BarcodeFormat_EAN_13, true
	case types.SymbologyEAN8:
		return oned.NewEAN8Reader(), gozxing.BarcodeFormat_EAN_8, true
	case types.SymbologyUPCA:
		// UPC-A is a 0-prefixed EAN-13; reuse that reader when it is present.
		if hints.Includes(types.SymbologyEAN13) {
			return nil, gozxing.BarcodeFormat_UPC_A, true
		}
		return oned.NewUPCAReader(), gozxing.BarcodeFormat_UPC_A, true
	case types.SymbologyUPCE:
		return oned.NewUPCEReader(), gozxing.BarcodeFormat_UPC_E, true
	case types.SymbologyCode128:
		return oned.NewCode128Reader(), gozxing.BarcodeFormat_CODE_128, true
	case types.SymbologyCode39:
		return oned.NewCode39Reader(), gozxing.BarcodeFormat_CODE_39, true
	case types.SymbologyITF:
		return oned.NewITFReader(), gozxing.BarcodeFormat_ITF, true
	case types.SymbologyCodabar:
		return oned.NewCodaBarReader(), gozxing.BarcodeFormat_CODABAR, true
	default:
		return nil, 0, false
	}
}

// Decode tries each configured reader in hint order and returns the first hit.
func (b *Backend) Decode(ctx context.Context, img image.Image) (decode.Result, error) {
	if img == nil {
		return decode.Result{}, errors.New("zxing: nil frame")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return decode.Result{}, ErrClosed
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return decode.Result{}, fmt.Errorf("zxing: binarize frame: %w", err)
	}

	for _, e := range b.readers {
		if err := ctx.Err(); err != nil {
			return decode.Result{}, err
		}

		res, err := e.reader.Decode(bmp, b.hints)
		if err != nil {
			var readerErr gozxing.ReaderException
			if errors.As(err, &readerErr) {
				continue
			}
			return decode.Result{}, fmt.Errorf("zxing: %s reader: %w", e.symbology, err)
		}

		return b.toResult(res), nil
	}

	return decode.Result{}, decode.ErrNotFound
}

func (b *Backend) toResult(res *gozxing.Result) decode.Result {
	text := res.GetText()
	sym := symbologyOf(res.GetBarcodeFormat())

	if sym == types.SymbologyEAN13 && b.upcA && len(text) == 13 && strings.HasPrefix(text, "0") {
		return decode.Result{Payload: text[1:], Symbology: types.SymbologyUPCA}
	}
	return decode.Result{Payload: text, Symbology: sym}
}

func symbologyOf(f gozxing.BarcodeFormat) types.Symbology {
	switch f {
	case gozxing.BarcodeFormat_QR_CODE:
		return types.SymbologyQR
	case gozxing.BarcodeFormat_DATA_MATRIX:
		return types.SymbologyDataMatrix
	case gozxing.BarcodeFormat_AZTEC:
		return types.SymbologyAztec
	case gozxing.BarcodeFormat_EAN_13:
		return types.SymbologyEAN13
	case gozxing.BarcodeFormat_EAN_8:
		return types.SymbologyEAN8
	case gozxing.BarcodeFormat_UPC_A:
		return types.SymbologyUPCA
	case gozxing.BarcodeFormat_UPC_E:
		return types.SymbologyUPCE
	case gozxing.BarcodeFormat_CODE_128:
		return types.SymbologyCode128
	case gozxing.BarcodeFormat_CODE_39:
		return types.SymbologyCode39
	case gozxing.BarcodeFormat_ITF:
		return types.SymbologyITF
	case gozxing.BarcodeFormat_CODABAR:
		return types.SymbologyCodabar
	default:
		return types.Symbology(strings.ToLower(fmt.Sprintf("%v", f)))
	}
}

// Close resets every reader and rejects further decodes.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	for _, e := range b.readers {
		e.reader.Reset()
	}
	b.closed = true
	return nil
}

// Verify Backend implements decode.Backend.
var _ decode.Backend = (*Backend)(nil)
