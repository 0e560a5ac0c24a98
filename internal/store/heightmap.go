// Package store persists finished terrains and indexes generation runs.
package store

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"heightfield/internal/terrain"
)

// HeightmapVersion is the file format written by WriteHeightmap.
const HeightmapVersion = 1

// Errors returned by ReadHeightmap.
var (
	ErrUnsupportedVersion = errors.New("store: unsupported heightmap version")
	ErrDigestMismatch     = errors.New("store: heightmap digest mismatch")
)

// Header is the JSON line that opens a heightmap file.
type Header struct {
	Version int    `json:"version"`
	Rows    int    `json:"rows"`
	Cols    int    `json:"cols"`
	Seed    int64  `json:"seed"`
	Digest  uint64 `json:"digest"`
}

// Digest hashes the shape and the IEEE-754 bits of every cell.
func Digest(m *terrain.Matrix) uint64 {
	h := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(m.Rows))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(m.Cols))
	_, _ = h.Write(buf[:])
	for _, v := range m.Data {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// WriteHeightmap stores m as a zstd stream: one JSON header line followed by
// the cells as little-endian float64 in row-major order.
func WriteHeightmap(path string, m *terrain.Matrix, seed int64) (Header, error) {
	hdr := Header{Version: HeightmapVersion, Rows: m.Rows, Cols: m.Cols, Seed: seed, Digest: Digest(m)}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return hdr, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return hdr, err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return hdr, err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(hdr)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return hdr, err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return hdr, err
	}
	if err := binary.Write(bw, binary.LittleEndian, m.Data); err != nil {
		enc.Close()
		return hdr, fmt.Errorf("write cells: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return hdr, err
	}
	if err := enc.Close(); err != nil {
		return hdr, err
	}
	return hdr, f.Close()
}

// ReadHeightmap loads a file written by WriteHeightmap and verifies its digest.
func ReadHeightmap(path string) (Header, *terrain.Matrix, error) {
	var hdr Header
	f, err := os.Open(path)
	if err != nil {
		return hdr, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return hdr, nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return hdr, nil, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &hdr); err != nil {
		return hdr, nil, fmt.Errorf("decode header: %w", err)
	}
	if hdr.Version != HeightmapVersion {
		return hdr, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, hdr.Version)
	}
	if hdr.Rows < 0 || hdr.Cols < 0 {
		return hdr, nil, fmt.Errorf("decode header: negative shape %dx%d", hdr.Rows, hdr.Cols)
	}

	m := terrain.NewMatrix(hdr.Rows, hdr.Cols)
	if err := binary.Read(br, binary.LittleEndian, m.Data); err != nil {
		return hdr, nil, fmt.Errorf("read cells: %w", err)
	}
	if got := Digest(m); got != hdr.Digest {
		return hdr, nil, fmt.Errorf("%w: header %016x, data %016x", ErrDigestMismatch, hdr.Digest, got)
	}
	return hdr, m, nil
}
