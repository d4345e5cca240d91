package script

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/vvvy/webhdfs-itt/pkg/models"
	"github.com/vvvy/webhdfs-itt/pkg/sizespec"
)

// Chunk is one contiguous [Start, End) slice of the reference file,
// destined for the working-directory relative Path.
type Chunk struct {
	Path  string
	Start int64
	End   int64
}

// WriteProgram is a compiled sequence of split points. Points holds the
// resolved starts plus the implicit final point at the total file size, so
// consecutive pairs delimit exactly the chunks to materialize.
type WriteProgram struct {
	Points []int64
	Total  int64
}

// ChunkPath returns the path assigned to the chunk with the given 0-based
// ordinal.
func ChunkPath(index int) string {
	return fmt.Sprintf("chunks/w%d", index)
}

// CompileWrite tokenizes text on whitespace, resolves each split point
// against the total file size and appends the implicit final point at
// total. The resolved sequence must be non-decreasing, final point
// included; otherwise compilation fails with UnsortedSplitPoints. An empty
// program fails with EmptyOrMalformedProgram.
func CompileWrite(text string, total int64) (WriteProgram, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return WriteProgram{}, models.NewBaseError("write program is empty").
			WithCode(models.EmptyOrMalformedProgram).
			WithComponent("ScriptCompiler")
	}

	points := make([]int64, 0, len(fields)+1)
	for i, field := range fields {
		point, err := sizespec.Resolve(field, total)
		if err != nil {
			return WriteProgram{}, errors.Wrapf(err, "write program split point %d", i)
		}
		points = append(points, point)
	}
	points = append(points, total)

	for i := 1; i < len(points); i++ {
		if points[i] < points[i-1] {
			return WriteProgram{}, models.NewBaseError("split point %d resolves to %d, before the previous point %d", i, points[i], points[i-1]).
				WithCode(models.UnsortedSplitPoints).
				WithComponent("ScriptCompiler").
				WithHint("split points must be non-decreasing and not exceed the file size")
		}
	}

	return WriteProgram{Points: points, Total: total}, nil
}

// Chunks returns the byte ranges delimited by consecutive split points, in
// order, each paired with its chunk path. Zero-length ranges are included.
func (p WriteProgram) Chunks() []Chunk {
	if len(p.Points) < 2 {
		return nil
	}
	chunks := make([]Chunk, 0, len(p.Points)-1)
	for i := 1; i < len(p.Points); i++ {
		chunks = append(chunks, Chunk{
			Path:  ChunkPath(i - 1),
			Start: p.Points[i-1],
			End:   p.Points[i],
		})
	}
	return chunks
}

// Render produces the exchange-record form: the chunk paths, space-joined
// in split-point order.
func (p WriteProgram) Render() string {
	chunks := p.Chunks()
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Path)
	}
	return strings.Join(parts, " ")
}
