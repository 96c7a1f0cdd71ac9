// SampleFilter describes filters to narrow the sample list.
package dto

import "time"

type SampleFilter struct {
	Camera string
	Split  string
	After  time.Time
	Before time.Time
	Limit  int
	Offset int
}
