package paint

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// historyVersion is bumped whenever the record layout changes.
const historyVersion = 1

type historyHeader struct {
	Version int
	Count   int
}

type snapshotRecord struct {
	Width, Height int
	Pix           []byte
}

// EncodeHistory writes snaps as an xz-compressed gob stream.
func EncodeHistory(w io.Writer, snaps []Snapshot) error {
	zw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("history: xz writer: %w", err)
	}
	enc := gob.NewEncoder(zw)
	if err := enc.Encode(historyHeader{Version: historyVersion, Count: len(snaps)}); err != nil {
		return fmt.Errorf("history: encode header: %w", err)
	}
	for i, s := range snaps {
		if err := enc.Encode(snapshotRecord{Width: s.width, Height: s.height, Pix: s.pix}); err != nil {
			return fmt.Errorf("history: encode entry %d: %w", i, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("history: xz close: %w", err)
	}
	return nil
}

// DecodeHistory reads a stream written by EncodeHistory.
func DecodeHistory(r io.Reader) ([]Snapshot, error) {
	zr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("history: xz reader: %w", err)
	}
	dec := gob.NewDecoder(zr)
	var hdr historyHeader
	if err := dec.Decode(&hdr); err != nil {
		return nil, fmt.Errorf("history: decode header: %w", err)
	}
	if hdr.Version != historyVersion {
		return nil, fmt.Errorf("history: unsupported version %d", hdr.Version)
	}
	if hdr.Count < 0 {
		return nil, errors.New("history: negative entry count")
	}
	// Count comes from the stream; append grows past the initial guess.
	out := make([]Snapshot, 0, min(hdr.Count, 64))
	for i := 0; i < hdr.Count; i++ {
		var rec snapshotRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("history: decode entry %d: %w", i, err)
		}
		if rec.Width < 0 || rec.Height < 0 || len(rec.Pix) != rec.Width*rec.Height*4 {
			return nil, fmt.Errorf("history: entry %d: %d bytes for %dx%d", i, len(rec.Pix), rec.Width, rec.Height)
		}
		out = append(out, Snapshot{width: rec.Width, height: rec.Height, pix: rec.Pix})
	}
	return out, nil
}

// MarshalHistory is EncodeHistory into a byte slice.
func MarshalHistory(snaps []Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeHistory(&buf, snaps); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalHistory is DecodeHistory from a byte slice.
func UnmarshalHistory(b []byte) ([]Snapshot, error) {
	return DecodeHistory(bytes.NewReader(b))
}
