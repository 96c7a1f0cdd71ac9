package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/medYousseffathallah/Datacollector/internal/dto"
	"github.com/medYousseffathallah/Datacollector/internal/model"
)

// FormatLabel renders one YOLO segmentation line per object:
// "<class_id> x1 y1 x2 y2 ...", coordinates with six decimals, newline-terminated.
func FormatLabel(objects []dto.LabeledObject) []byte {
	var buf bytes.Buffer
	for _, obj := range objects {
		buf.WriteString(strconv.Itoa(obj.ClassID))
		for _, p := range obj.Polygon {
			fmt.Fprintf(&buf, " %.6f %.6f", p.X, p.Y)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// LabelLine is one parsed label row.
type LabelLine struct {
	ClassID int
	Polygon []model.Point
}

// ParseLabel reads a label file back. Blank lines are skipped.
func ParseLabel(data []byte) ([]LabelLine, error) {
	var lines []LabelLine
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for n := 1; scanner.Scan(); n++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields)%2 != 1 {
			return nil, fmt.Errorf("line %d: odd coordinate count", n)
		}

		classID, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid class id %q", n, fields[0])
		}

		line := LabelLine{ClassID: classID}
		for i := 1; i < len(fields); i += 2 {
			x, errX := strconv.ParseFloat(fields[i], 64)
			y, errY := strconv.ParseFloat(fields[i+1], 64)
			if errX != nil || errY != nil {
				return nil, fmt.Errorf("line %d: invalid coordinate", n)
			}
			line.Polygon = append(line.Polygon, model.Point{X: x, Y: y})
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read label: %w", err)
	}
	return lines, nil
}
