package store

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"heightfield/internal/terrain"
)

func sampleMatrix() *terrain.Matrix {
	m := terrain.NewMatrix(3, 4)
	for i := range m.Data {
		m.Data[i] = math.Sin(float64(i)) * 0.7
	}
	m.Data[5] = math.NaN()
	return m
}

func TestHeightmapRoundTrip(t *testing.T) {
	m := sampleMatrix()
	p := filepath.Join(t.TempDir(), "out", "terrain.hm.zst")
	hdr, err := WriteHeightmap(p, m, -99)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.Digest != Digest(m) || hdr.Rows != 3 || hdr.Cols != 4 {
		t.Fatalf("unexpected header %+v", hdr)
	}

	got, back, err := ReadHeightmap(p)
	if err != nil {
		t.Fatal(err)
	}
	if got != hdr {
		t.Errorf("header %+v, want %+v", got, hdr)
	}
	for i, v := range m.Data {
		if math.Float64bits(back.Data[i]) != math.Float64bits(v) {
			t.Errorf("cell %d = %v, want %v", i, back.Data[i], v)
		}
	}
}

func TestDigestSensitivity(t *testing.T) {
	a := sampleMatrix()
	b := a.Clone()
	if Digest(a) != Digest(b) {
		t.Fatal("equal matrices hash differently")
	}
	b.Data[0] = math.Nextafter(b.Data[0], 1)
	if Digest(a) == Digest(b) {
		t.Errorf("one-ulp change kept the digest")
	}
	flat := &terrain.Matrix{Rows: 4, Cols: 3, Data: a.Data}
	if Digest(a) == Digest(flat) {
		t.Errorf("reshaped matrix kept the digest")
	}
}

// writeRaw writes a heightmap stream by hand so corrupt files can be built.
func writeRaw(t *testing.T, header string, cells []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "raw.hm.zst")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = enc.Write([]byte(header + "\n"))
	_, _ = enc.Write(cells)
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestReadHeightmapRejects(t *testing.T) {
	if _, _, err := ReadHeightmap(writeRaw(t, `{"version":9,"rows":1,"cols":1}`, make([]byte, 8))); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
	if _, _, err := ReadHeightmap(writeRaw(t, `{"version":1,"rows":1,"cols":1,"digest":1}`, make([]byte, 8))); !errors.Is(err, ErrDigestMismatch) {
		t.Errorf("expected ErrDigestMismatch, got %v", err)
	}
	if _, _, err := ReadHeightmap(writeRaw(t, `{"version":1,"rows":2,"cols":2}`, make([]byte, 8))); err == nil {
		t.Errorf("expected an error for truncated cells")
	}
}
