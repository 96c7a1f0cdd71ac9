package dto

import "github.com/medYousseffathallah/Datacollector/internal/model"

// LabeledObject is a detection that survived filtering, ready to be written as a label line.
type LabeledObject struct {
	ClassID   int
	ClassName string
	Score     float64
	Polygon   []model.Point
}

// FilterResult is the filtered view of one frame's inference output.
type FilterResult struct {
	Objects []LabeledObject
	Classes []string // distinct class names, first-seen order
}

// Empty reports whether no detection survived.
func (r FilterResult) Empty() bool {
	return len(r.Objects) == 0
}
