package batch

import (
	"errors"

	"github.com/pdevine/tensor"

	"github.com/ZanzyTHEbar/textpipe/textpipe/dataset"
)

// ErrEmptyBatch indicates Collate was called with zero pairs.
var ErrEmptyBatch = errors.New("cannot collate an empty batch")

// Batch is a padded, stacked view of several sequence pairs. Inputs and
// Targets are int64 tensors of shape (Size, MaxLen); row i holds pair i of
// the collated slice, right-filled with the padding id past Lengths[i].
// A batch is built per training step and discarded after consumption.
type Batch struct {
	Inputs  *tensor.Dense
	Targets *tensor.Dense
	Lengths []int
	Size    int
	MaxLen  int
}

// Collator combines variable-length pairs into fixed-shape batches by
// right-padding to the longest input in the batch. Padding never truncates.
type Collator struct {
	padID int64
}

// NewCollator returns a collator that pads with the given id, normally the
// tokenizer's PadID.
func NewCollator(padID int64) *Collator {
	return &Collator{padID: padID}
}

// Collate stacks pairs into two (len(pairs), maxLen) tensors, preserving
// pair order row for row.
func (c *Collator) Collate(pairs []dataset.Pair) (*Batch, error) {
	if len(pairs) == 0 {
		return nil, ErrEmptyBatch
	}

	maxLen := 0
	lengths := make([]int, len(pairs))
	for i, p := range pairs {
		lengths[i] = len(p.Input)
		if len(p.Input) > maxLen {
			maxLen = len(p.Input)
		}
	}

	inputs := make([]int64, len(pairs)*maxLen)
	targets := make([]int64, len(pairs)*maxLen)
	if c.padID != 0 {
		for i := range inputs {
			inputs[i] = c.padID
			targets[i] = c.padID
		}
	}
	for i, p := range pairs {
		copy(inputs[i*maxLen:], p.Input)
		copy(targets[i*maxLen:], p.Target)
	}

	return &Batch{
		Inputs:  tensor.New(tensor.WithShape(len(pairs), maxLen), tensor.WithBacking(inputs)),
		Targets: tensor.New(tensor.WithShape(len(pairs), maxLen), tensor.WithBacking(targets)),
		Lengths: lengths,
		Size:    len(pairs),
		MaxLen:  maxLen,
	}, nil
}
