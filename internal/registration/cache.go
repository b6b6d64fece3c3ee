package registration

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	colTabFile      = "interpX.txt"
	rowTabFile      = "interpY.txt"
	fingerprintFile = "lut.fingerprint"
)

// Fingerprint hashes the control points and output geometry that determine
// an LUT's contents, via FNV-1a, so a cached table can be invalidated the
// moment any of its inputs change.
func Fingerprint(points []ControlPoint, width, height int) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	write := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	for _, p := range points {
		write(p.IRX)
		write(p.IRY)
		write(p.VisX)
		write(p.VisY)
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(width))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(height))
	h.Write(buf[:])
	return h.Sum64()
}

// SaveLUT writes an LUT's two tables and a fingerprint sidecar into dir, one
// float per cell, space-separated rows, newline-terminated.
func SaveLUT(dir string, lut *LUT, fp uint64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("registration: creating cache dir: %w", err)
	}
	if err := writeTable(filepath.Join(dir, colTabFile), lut.ColTab); err != nil {
		return err
	}
	if err := writeTable(filepath.Join(dir, rowTabFile), lut.RowTab); err != nil {
		return err
	}
	fpPath := filepath.Join(dir, fingerprintFile)
	if err := os.WriteFile(fpPath, []byte(strconv.FormatUint(fp, 10)+"\n"), 0o644); err != nil {
		return fmt.Errorf("registration: writing fingerprint: %w", err)
	}
	return nil
}

func writeTable(path string, table [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("registration: creating %s: %w", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, row := range table {
		for i, v := range row {
			if i > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		w.WriteByte('\n')
	}
	return w.Flush()
}

func readTable(path string, width, height int) ([][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != height {
		return nil, fmt.Errorf("registration: %s has %d rows, want %d", path, len(lines), height)
	}
	table := make([][]float64, height)
	for y, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != width {
			return nil, fmt.Errorf("registration: %s row %d has %d cols, want %d", path, y, len(fields), width)
		}
		row := make([]float64, width)
		for x, tok := range fields {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("registration: %s row %d col %d: %w", path, y, x, err)
			}
			row[x] = v
		}
		table[y] = row
	}
	return table, nil
}

// LoadLUT reads a previously cached LUT, failing if either table's shape
// doesn't match the expected geometry.
func LoadLUT(dir string, width, height int) (*LUT, error) {
	colTab, err := readTable(filepath.Join(dir, colTabFile), width, height)
	if err != nil {
		return nil, err
	}
	rowTab, err := readTable(filepath.Join(dir, rowTabFile), width, height)
	if err != nil {
		return nil, err
	}
	return &LUT{Width: width, Height: height, ColTab: colTab, RowTab: rowTab}, nil
}

// readFingerprint returns the cached fingerprint, or ok=false if no cache
// exists yet at dir.
func readFingerprint(dir string) (fp uint64, ok bool) {
	data, err := os.ReadFile(filepath.Join(dir, fingerprintFile))
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// LoadOrBuild returns the cached LUT for (fwd, points, width, height) when
// its fingerprint sidecar still matches, rebuilding and overwriting the
// cache otherwise. The bool result reports whether the cache was reused.
func LoadOrBuild(dir string, fwd Affine, points []ControlPoint, width, height int) (*LUT, bool, error) {
	want := Fingerprint(points, width, height)
	if got, ok := readFingerprint(dir); ok && got == want {
		if lut, err := LoadLUT(dir, width, height); err == nil {
			return lut, true, nil
		}
	}
	lut, err := BuildLUT(fwd, width, height)
	if err != nil {
		return nil, false, err
	}
	if err := SaveLUT(dir, lut, want); err != nil {
		return nil, false, err
	}
	return lut, false, nil
}
