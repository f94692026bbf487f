package tessellate

import (
	"fmt"

	"github.com/chazu/cornerpoint/pkg/grid"
)

// scanColumn returns the k of every active cell in the column viewed by v,
// in increasing k.
func scanColumn(actnum []int32, v grid.ColumnView) ([]int32, error) {
	if !v.Fits(len(actnum)) {
		return nil, fmt.Errorf("column view base=%d stride=%d len=%d outside %d cells: %w",
			v.Base, v.Stride, v.Len, len(actnum), ErrIndexRange)
	}
	var active []int32
	for k := 0; k < v.Len; k++ {
		if actnum[v.Index(k)] != 0 {
			active = append(active, int32(k))
		}
	}
	return active, nil
}
