// Package chunk partitions a parsed stylesheet into size-bounded chunks and
// renders them back to text with optional source maps.
package chunk

import (
	"csssplit/css"
)

// Chunk is a contiguous, order preserving subset of stylesheet top-level
// nodes destined for a single output file.
type Chunk struct {
	Index  int // 0-based position among chunks of the same source
	Weight int // accumulated selector weight
	Sheet  *css.Stylesheet
}

// Partition groups top-level nodes of sheet into chunks so that adding a node
// never pushes a chunk's weight above size. A node heavier than size on its
// own is placed alone into its own chunk, nodes are never split. Empty
// stylesheet produces no chunks.
func Partition(sheet *css.Stylesheet, size int) []*Chunk {
	if size < 1 {
		size = 1
	}

	var (
		chunks  []*Chunk
		groups  [][]css.Node
		current *Chunk
	)
	for _, n := range sheet.Nodes {
		w := css.Weight(n)
		if current == nil || current.Weight+w > size {
			current = &Chunk{Index: len(chunks)}
			chunks = append(chunks, current)
			groups = append(groups, nil)
		}
		groups[current.Index] = append(groups[current.Index], n)
		current.Weight += w
	}
	for i, c := range chunks {
		c.Sheet = sheet.Clone(groups[i])
	}
	return chunks
}
