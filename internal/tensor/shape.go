package tensor

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Shape is the list of dimension sizes of a tensor, outermost first.
// An empty Shape is a scalar.
type Shape []int

// NumElements returns the product of the dimensions (1 for a scalar).
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate rejects non-positive dimensions.
func (s Shape) Validate() error {
	if i := slices.IndexFunc(s, func(d int) bool { return d <= 0 }); i >= 0 {
		return fmt.Errorf("%w: dimension %d is %d", ErrInvalidShape, i, s[i])
	}
	return nil
}

// Equal reports whether both shapes have the same dimensions.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s, other)
}

// Clone returns a copy that does not alias s. A nil shape clones to an
// empty one.
func (s Shape) Clone() Shape {
	return append(Shape{}, s...)
}

// Ints returns the dimensions as a plain slice, for serialization.
func (s Shape) Ints() []int {
	return append([]int{}, s...)
}

// String formats the shape as [2x3]; a scalar is [].
func (s Shape) String() string {
	dims := make([]string, len(s))
	for i, d := range s {
		dims[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(dims, "x") + "]"
}
