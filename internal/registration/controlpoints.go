package registration

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseControlPointFile reads the plain-text control-point format of spec
// one pair per line, four whitespace-separated integers
// "x_visible y_visible x_base y_base". Blank lines and lines starting with
// '#' are skipped.
func ParseControlPointFile(r io.Reader) ([]ControlPoint, error) {
	var points []ControlPoint
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("registration: line %d: want 4 fields, got %d", lineNo, len(fields))
		}
		vals := make([]float64, 4)
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("registration: line %d: %w", lineNo, err)
			}
			vals[i] = float64(v)
		}
		points = append(points, ControlPoint{
			VisX: vals[0], VisY: vals[1],
			IRX: vals[2], IRY: vals[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("registration: reading control points: %w", err)
	}
	if len(points) < MinControlPoints {
		return nil, fmt.Errorf("registration: need at least %d control points, got %d", MinControlPoints, len(points))
	}
	return points, nil
}
