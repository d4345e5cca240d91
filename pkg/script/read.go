// Package script compiles the read and write test programs from their
// textual form into resolved byte ranges and exchange-record fields.
package script

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/vvvy/webhdfs-itt/pkg/models"
	"github.com/vvvy/webhdfs-itt/pkg/sizespec"
)

// Kind discriminates the two read-program instructions.
type Kind string

const (
	Seek Kind = "s"
	Read Kind = "r"
)

// Instruction is one compiled read-program step. Arg is the resolved byte
// value: the target offset for a seek, the length for a read. Reads
// additionally carry their 0-based ordinal and the working-directory
// relative output slot the system under test must write to.
type Instruction struct {
	Kind Kind
	Arg  int64
	Seq  int
	Out  string
}

// ReadProgram is a compiled sequence of seek/read instructions.
type ReadProgram struct {
	Instructions []Instruction
	Total        int64
}

// OutputSlot returns the output path assigned to the read with the given
// 0-based ordinal.
func OutputSlot(seq int) string {
	return fmt.Sprintf("out/r%d", seq)
}

// CompileRead tokenizes text on whitespace and resolves each `s:<size>` or
// `r:<size>` instruction against the total file size. Reads are assigned
// sequential output slots in program order. An empty program or an
// instruction of any other shape fails with EmptyOrMalformedProgram; a bad
// size token fails with MalformedToken.
func CompileRead(text string, total int64) (ReadProgram, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ReadProgram{}, models.NewBaseError("read program is empty").
			WithCode(models.EmptyOrMalformedProgram).
			WithComponent("ScriptCompiler")
	}

	program := ReadProgram{
		Instructions: make([]Instruction, 0, len(fields)),
		Total:        total,
	}
	reads := 0
	for i, field := range fields {
		prefix, token, found := strings.Cut(field, ":")
		if !found {
			return ReadProgram{}, malformedInstruction(field, i)
		}
		arg, err := sizespec.Resolve(token, total)
		if err != nil {
			return ReadProgram{}, errors.Wrapf(err, "read program instruction %d", i)
		}
		switch Kind(prefix) {
		case Seek:
			program.Instructions = append(program.Instructions, Instruction{Kind: Seek, Arg: arg, Seq: -1})
		case Read:
			program.Instructions = append(program.Instructions, Instruction{
				Kind: Read,
				Arg:  arg,
				Seq:  reads,
				Out:  OutputSlot(reads),
			})
			reads++
		default:
			return ReadProgram{}, malformedInstruction(field, i)
		}
	}
	return program, nil
}

func malformedInstruction(field string, index int) error {
	return models.NewBaseError("instruction %d %q is neither s:<size> nor r:<size>", index, field).
		WithCode(models.EmptyOrMalformedProgram).
		WithComponent("ScriptCompiler")
}

// Reads returns the read instructions only, in program order.
func (p ReadProgram) Reads() []Instruction {
	reads := make([]Instruction, 0, len(p.Instructions))
	for _, instr := range p.Instructions {
		if instr.Kind == Read {
			reads = append(reads, instr)
		}
	}
	return reads
}

// Render produces the exchange-record form: space-joined tokens
// `s:<value>` for seeks and `r:<value>:<output_path>` for reads, with all
// values resolved to byte counts.
func (p ReadProgram) Render() string {
	parts := make([]string, 0, len(p.Instructions))
	for _, instr := range p.Instructions {
		switch instr.Kind {
		case Seek:
			parts = append(parts, "s:"+strconv.FormatInt(instr.Arg, 10))
		case Read:
			parts = append(parts, "r:"+strconv.FormatInt(instr.Arg, 10)+":"+instr.Out)
		}
	}
	return strings.Join(parts, " ")
}
