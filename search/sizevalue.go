// sizevalue.go - a pflag.Value for human-readable byte sizes
//
// (c) 2024- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package search

import "github.com/opencoff/go-utils"

// SizeValue adapts a byte count with a k/M/G/T/P/E suffix into a
// pflag.Value, for the CLI's --mmap-threshold flag. Grounded on the
// corpus's own SizeValue (testsuite/flag_size.go), which wraps the
// same go-utils helpers for the test-runner's own size flags.
type SizeValue uint64

// NewSizeValue returns a SizeValue defaulting to 0 (the CLI treats 0
// as "use the Worker's own default").
func NewSizeValue() *SizeValue {
	v := SizeValue(0)
	return &v
}

func (v *SizeValue) String() string {
	return utils.HumanizeSize(uint64(*v))
}

func (v *SizeValue) Set(s string) error {
	z, err := utils.ParseSize(s)
	*v = SizeValue(z)
	return err
}

func (v *SizeValue) Type() string {
	return "size"
}

// Value returns the parsed byte count.
func (v *SizeValue) Value() uint64 {
	return uint64(*v)
}
