package types

import "time"

// ScanEvent is delivered to the consumer once per qualifying decode.
// The engine keeps no reference to it after delivery.
type ScanEvent struct {
	// Payload is the decoded text.
	Payload string `json:"payload"`
	// Symbology is the code type the payload was decoded from.
	Symbology Symbology `json:"symbology"`
	// FrameSeq is the sequence number of the frame that produced the decode.
	FrameSeq uint64 `json:"frame_seq"`
	// DecodedAt is the engine clock time at which the decode was confirmed.
	DecodedAt time.Time `json:"decoded_at"`
}
