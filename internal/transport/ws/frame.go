package ws

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"heightfield/internal/terrain"
)

// FrameHeader is the JSON line that opens every snapshot frame.
type FrameHeader struct {
	Seq  int     `json:"seq"`
	Rows int     `json:"rows"`
	Cols int     `json:"cols"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// EncodeFrame renders a snapshot as a JSON header line followed by the cells
// as little-endian float32, row-major.
func EncodeFrame(seq int, m *terrain.Matrix) ([]byte, error) {
	lo, hi := m.MinMax()
	hb, err := json.Marshal(FrameHeader{Seq: seq, Rows: m.Rows, Cols: m.Cols, Min: lo, Max: hi})
	if err != nil {
		return nil, fmt.Errorf("encode frame header: %w", err)
	}
	out := make([]byte, 0, len(hb)+1+4*len(m.Data))
	out = append(out, hb...)
	out = append(out, '\n')
	for _, v := range m.Data {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(float32(v)))
	}
	return out, nil
}

// DecodeFrame parses a frame written by EncodeFrame.
func DecodeFrame(b []byte) (FrameHeader, *terrain.Matrix, error) {
	var hdr FrameHeader
	nl := bytes.IndexByte(b, '\n')
	if nl < 0 {
		return hdr, nil, fmt.Errorf("frame: missing header line")
	}
	if err := json.Unmarshal(b[:nl], &hdr); err != nil {
		return hdr, nil, fmt.Errorf("frame header: %w", err)
	}
	body := b[nl+1:]
	if hdr.Rows < 0 || hdr.Cols < 0 || len(body) != 4*hdr.Rows*hdr.Cols {
		return hdr, nil, fmt.Errorf("frame: %d body bytes for %dx%d", len(body), hdr.Rows, hdr.Cols)
	}
	m := terrain.NewMatrix(hdr.Rows, hdr.Cols)
	for i := range m.Data {
		m.Data[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(body[4*i:])))
	}
	return hdr, m, nil
}
