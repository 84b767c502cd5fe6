// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":    "0",
	"REGISTERS": fmt.Sprintf("%v", REGISTERS),
	"OPCODES":   fmt.Sprintf("%v", OPCODES),
	"HALT":      fmt.Sprintf("%v", uint64(HALT)),
}

// opMap maps mnemonics to opcodes.
var opMap = map[string]Op{
	"addr": OP_ADDR,
	"addi": OP_ADDI,
	"mulr": OP_MULR,
	"muli": OP_MULI,
	"banr": OP_BANR,
	"bani": OP_BANI,
	"borr": OP_BORR,
	"bori": OP_BORI,
	"setr": OP_SETR,
	"seti": OP_SETI,
	"gtir": OP_GTIR,
	"gtri": OP_GTRI,
	"gtrr": OP_GTRR,
	"eqir": OP_EQIR,
	"eqri": OP_EQRI,
	"eqrr": OP_EQRR,
}

// Assembler is a single pass macro assembler for the hexad machine.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of jump labels to instruction indexes.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	bind     uint64 // Register bound to the instruction pointer.
	bindSeen bool   // Set once #ip has been parsed.
}

// Define defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// labelWord reports whether a word can name a label.
func labelWord(word string) bool {
	c := word[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint64, err error) {
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}
	value, err = strconv.ParseUint(word, 0, 64)
	if err != nil {
		var v64 int64
		v64, err = strconv.ParseInt(word, 0, 64)
		if err != nil {
			err = ErrParseNumber(word)
			return
		}
		value = uint64(v64)
	}

	if invert {
		value = ^value
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value64 uint64
		value64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be labels
			// or something else.
			continue
		}
		pred[key] = starlark.MakeUint64(value64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Uint64()
	if !ok {
		var st_int64 int64
		st_int64, ok = st_int.Int64()
		if !ok {
			err = ErrParseExpression(expr)
			return
		}
		value = uint64(st_int64)
	}
	return
}

// parseBind handles the #ip directive that binds the instruction pointer
// to a register.
func (asm *Assembler) parseBind(words []string) (err error) {
	if len(words) != 2 {
		err = ErrBindSyntax
		return
	}
	if asm.bindSeen {
		err = ErrBindDuplicate
		return
	}
	if len(asm.Opcode) != 0 {
		err = ErrBindLate
		return
	}

	var reg uint64
	reg, err = asm.valueOf(words[1])
	if err != nil {
		return
	}
	if reg >= REGISTERS {
		err = ErrRegisterInvalid
		return
	}

	asm.bind = reg
	asm.bindSeen = true

	return
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words = slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if len(words) > 0 && words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		if len(word) == 0 {
			continue
		}

		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	// #ip REG
	if words[0] == "#ip" {
		err = asm.parseBind(words)
		words = words[:0]
		return
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentIp()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", fmt.Sprintf("%v_%v_", name, lineno))
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, macro.LineNo+n)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentIp gets the current Ip
func (asm *Assembler) currentIp() int {
	return len(asm.Opcode)
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}
	asm.bind = 0
	asm.bindSeen = false

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		all_words := strings.Split(line, " ")

		var words []string
		for _, single := range all_words {
			if len(single) > 0 {
				words = append(words, single)
			}
		}

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of label operands, then validation.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		lineno = op.LineNo
		line = strings.Join(op.Words, " ")

		if len(op.LinkLabel) != 0 {
			ip, ok := asm.Label[op.LinkLabel]
			if !ok {
				err = ErrLabelMissing(op.LinkLabel)
				return
			}
			value := uint64(ip)
			if op.Words[0] == "jump" {
				if value == 0 {
					err = ErrJumpUnreachable
					return
				}
				// Land one short; the pointer increment reaches the target.
				value -= 1
			}
			switch op.LinkArg {
			case 0:
				op.Code.A = value
			case 1:
				op.Code.B = value
			default:
				op.Code.C = value
			}
		}

		err = op.Code.Validate()
		if err != nil {
			return
		}
	}

	prog = &Program{
		Bind:    asm.bind,
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// ParseFS parses assembly text from a file in a filesystem.
func (asm *Assembler) ParseFS(fsys fs.FS, name string) (prog *Program, err error) {
	file, err := fsys.Open(name)
	if err != nil {
		return
	}
	defer file.Close()

	prog, err = asm.Parse(file)
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	opcode := Opcode{
		LineNo: lineno,
		Ip:     asm.currentIp(),
		Words:  words,
	}

	switch words[0] {
	case "halt":
		if len(words) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		opcode.Code = Code{Op: OP_SETI, A: HALT, C: asm.bind}

	case "jump":
		if len(words) < 2 {
			err = ErrOperandMissing
			return
		}
		if len(words) > 2 {
			err = ErrOpcodeExtraArgs
			return
		}
		opcode.Code = Code{Op: OP_SETI, C: asm.bind}
		if labelWord(words[1]) {
			opcode.LinkLabel = words[1]
		} else {
			var target uint64
			target, err = asm.valueOf(words[1])
			if err != nil {
				return
			}
			if target == 0 {
				err = ErrJumpUnreachable
				return
			}
			// Land one short; the pointer increment reaches the target.
			opcode.Code.A = target - 1
		}

	default:
		op, ok := opMap[words[0]]
		if !ok {
			err = ErrInstructionInvalid
			return
		}
		if len(words) < 4 {
			err = ErrOperandMissing
			return
		}
		if len(words) > 4 {
			err = ErrOpcodeExtraArgs
			return
		}

		args := [3]uint64{}
		for n, word := range words[1:4] {
			if labelWord(word) {
				if len(opcode.LinkLabel) != 0 {
					err = ErrLabelMultiple
					return
				}
				opcode.LinkLabel = word
				opcode.LinkArg = n
				continue
			}
			args[n], err = asm.valueOf(word)
			if err != nil {
				return
			}
		}
		opcode.Code = Code{Op: op, A: args[0], B: args[1], C: args[2]}
	}

	asm.Opcode = append(asm.Opcode, opcode)

	return
}
