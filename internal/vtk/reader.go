package vtk

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadFile parses a legacy ASCII VTK file from disk.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Read parses a legacy ASCII VTK stream.
func Read(r io.Reader) (*Dataset, error) {
	br := bufio.NewReader(r)

	// The header is line-oriented: version comment, free-text title, format.
	version, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !strings.HasPrefix(version, "# vtk DataFile") {
		return nil, fmt.Errorf("not a legacy VTK file (header %q)", version)
	}
	title, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("read title: %w", err)
	}
	format, err := readLine(br)
	if err != nil {
		return nil, fmt.Errorf("read format: %w", err)
	}
	switch strings.ToUpper(strings.TrimSpace(format)) {
	case "ASCII":
	case "BINARY":
		return nil, fmt.Errorf("binary VTK files are not supported")
	default:
		return nil, fmt.Errorf("unknown VTK format %q", format)
	}

	ds := &Dataset{Title: strings.TrimSpace(title)}
	// Everything after the header is whitespace-separated tokens.
	p := &parser{tok: newTokenizer(br), ds: ds}
	if err := p.run(); err != nil {
		return nil, err
	}
	if len(ds.Points) == 0 {
		return nil, fmt.Errorf("dataset has no points")
	}
	return ds, nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// tokenizer yields whitespace-separated words and remembers where lines end,
// so headers with optional trailing fields (SCALARS in particular) can be
// parsed without consuming the first word of the next section.
type tokenizer struct {
	s    *bufio.Scanner
	line []string
}

func newTokenizer(r io.Reader) *tokenizer {
	s := bufio.NewScanner(r)
	// ASCII data lines can run long; the default 64K cap is not enough for
	// wide point blocks written one line per section.
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &tokenizer{s: s}
}

// fill loads words from the next non-empty line.
func (t *tokenizer) fill() error {
	for len(t.line) == 0 {
		if !t.s.Scan() {
			if err := t.s.Err(); err != nil {
				return err
			}
			return io.EOF
		}
		t.line = strings.Fields(t.s.Text())
	}
	return nil
}

func (t *tokenizer) next() (string, error) {
	if err := t.fill(); err != nil {
		return "", err
	}
	w := t.line[0]
	t.line = t.line[1:]
	return w, nil
}

func (t *tokenizer) peek() (string, error) {
	if err := t.fill(); err != nil {
		return "", err
	}
	return t.line[0], nil
}

// peekSameLine returns the next word only if it sits on the same line as the
// last consumed one.
func (t *tokenizer) peekSameLine() (string, bool) {
	if len(t.line) == 0 {
		return "", false
	}
	return t.line[0], true
}

func (t *tokenizer) nextInt() (int, error) {
	w, err := t.next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(w)
	if err != nil {
		return 0, fmt.Errorf("expected integer, got %q", w)
	}
	return n, nil
}

func (t *tokenizer) nextFloat() (float64, error) {
	w, err := t.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(w, 64)
	if err != nil {
		return 0, fmt.Errorf("expected number, got %q", w)
	}
	return v, nil
}

type parser struct {
	tok *tokenizer
	ds  *Dataset

	// section tracks whether attribute arrays belong to points or cells.
	// Only point data is kept; cell data is parsed and discarded.
	section string
}

func (p *parser) run() error {
	for {
		word, err := p.tok.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := p.keyword(strings.ToUpper(word)); err != nil {
			return err
		}
	}
}

func (p *parser) keyword(kw string) error {
	switch kw {
	case "DATASET":
		kind, err := p.tok.next()
		if err != nil {
			return fmt.Errorf("DATASET: %w", err)
		}
		kind = strings.ToUpper(kind)
		switch kind {
		case "POLYDATA", "UNSTRUCTURED_GRID", "STRUCTURED_GRID":
			p.ds.Kind = kind
		default:
			return fmt.Errorf("unsupported dataset kind %s", kind)
		}
		return nil

	case "POINTS":
		return p.points()

	case "CELLS", "POLYGONS", "LINES", "VERTICES", "TRIANGLE_STRIPS":
		return p.cells(kw)

	case "CELL_TYPES":
		n, err := p.tok.nextInt()
		if err != nil {
			return fmt.Errorf("CELL_TYPES: %w", err)
		}
		return p.skip(n, "CELL_TYPES")

	case "POINT_DATA":
		n, err := p.tok.nextInt()
		if err != nil {
			return fmt.Errorf("POINT_DATA: %w", err)
		}
		if n != len(p.ds.Points) {
			return fmt.Errorf("POINT_DATA count %d does not match %d points", n, len(p.ds.Points))
		}
		p.section = "POINT_DATA"
		return nil

	case "CELL_DATA":
		if _, err := p.tok.nextInt(); err != nil {
			return fmt.Errorf("CELL_DATA: %w", err)
		}
		p.section = "CELL_DATA"
		return nil

	case "SCALARS":
		return p.scalars()

	case "VECTORS", "NORMALS":
		return p.vectors(kw)

	case "FIELD":
		return p.field()

	case "LOOKUP_TABLE":
		// A lookup table published outside SCALARS: name plus n RGBA rows.
		if _, err := p.tok.next(); err != nil {
			return fmt.Errorf("LOOKUP_TABLE: %w", err)
		}
		n, err := p.tok.nextInt()
		if err != nil {
			return fmt.Errorf("LOOKUP_TABLE: %w", err)
		}
		return p.skip(n*4, "LOOKUP_TABLE")

	case "METADATA":
		// METADATA blocks (INFORMATION ...) are written by newer VTK
		// versions; they carry nothing this reader needs.
		return p.skipMetadata()

	default:
		return fmt.Errorf("unsupported keyword %s", kw)
	}
}

func (p *parser) points() error {
	n, err := p.tok.nextInt()
	if err != nil {
		return fmt.Errorf("POINTS: %w", err)
	}
	if _, err := p.tok.next(); err != nil { // data type, e.g. float
		return fmt.Errorf("POINTS: %w", err)
	}
	pts := make([][3]float64, n)
	for i := 0; i < n; i++ {
		for axis := 0; axis < 3; axis++ {
			v, err := p.tok.nextFloat()
			if err != nil {
				return fmt.Errorf("POINTS value %d: %w", i*3+axis, err)
			}
			pts[i][axis] = v
		}
	}
	p.ds.Points = pts
	return nil
}

func (p *parser) cells(kw string) error {
	n, err := p.tok.nextInt()
	if err != nil {
		return fmt.Errorf("%s: %w", kw, err)
	}
	size, err := p.tok.nextInt()
	if err != nil {
		return fmt.Errorf("%s: %w", kw, err)
	}
	if err := p.skip(size, kw); err != nil {
		return err
	}
	// VERTICES and LINES alongside POLYGONS still count as cells; the
	// original reader reports the total.
	p.ds.Cells += n
	return nil
}

func (p *parser) scalars() error {
	name, err := p.tok.next()
	if err != nil {
		return fmt.Errorf("SCALARS: %w", err)
	}
	if _, err := p.tok.next(); err != nil { // data type
		return fmt.Errorf("SCALARS %s: %w", name, err)
	}

	// The component count is optional and shares the header line. Peeking
	// across the line break would swallow the first value of a table-less
	// integer scalar section, so only a word on the same line counts.
	comps := 1
	if w, ok := p.tok.peekSameLine(); ok {
		n, convErr := strconv.Atoi(w)
		if convErr != nil {
			return fmt.Errorf("SCALARS %s: bad component count %q", name, w)
		}
		comps = n
		p.tok.next()
	}
	if comps < 1 || comps > 4 {
		return fmt.Errorf("SCALARS %s: invalid component count %d", name, comps)
	}
	if w, err := p.tok.peek(); err == nil && strings.EqualFold(w, "LOOKUP_TABLE") {
		p.tok.next()
		if _, err := p.tok.next(); err != nil { // table name
			return fmt.Errorf("SCALARS %s: %w", name, err)
		}
	}

	return p.readArray(name, comps, p.attributeCount())
}

func (p *parser) vectors(kw string) error {
	name, err := p.tok.next()
	if err != nil {
		return fmt.Errorf("%s: %w", kw, err)
	}
	if _, err := p.tok.next(); err != nil { // data type
		return fmt.Errorf("%s %s: %w", kw, name, err)
	}
	return p.readArray(name, 3, p.attributeCount())
}

func (p *parser) field() error {
	if _, err := p.tok.next(); err != nil { // field name
		return fmt.Errorf("FIELD: %w", err)
	}
	numArrays, err := p.tok.nextInt()
	if err != nil {
		return fmt.Errorf("FIELD: %w", err)
	}
	for i := 0; i < numArrays; i++ {
		name, err := p.tok.next()
		if err != nil {
			return fmt.Errorf("FIELD array %d: %w", i, err)
		}
		comps, err := p.tok.nextInt()
		if err != nil {
			return fmt.Errorf("FIELD %s: %w", name, err)
		}
		tuples, err := p.tok.nextInt()
		if err != nil {
			return fmt.Errorf("FIELD %s: %w", name, err)
		}
		if _, err := p.tok.next(); err != nil { // data type
			return fmt.Errorf("FIELD %s: %w", name, err)
		}
		if err := p.readArrayN(name, comps, tuples); err != nil {
			return err
		}
	}
	return nil
}

// attributeCount is the tuple count for the current attribute section.
func (p *parser) attributeCount() int {
	if p.section == "POINT_DATA" {
		return len(p.ds.Points)
	}
	return p.ds.Cells
}

func (p *parser) readArray(name string, comps, tuples int) error {
	return p.readArrayN(name, comps, tuples)
}

func (p *parser) readArrayN(name string, comps, tuples int) error {
	values := make([]float64, comps*tuples)
	for i := range values {
		v, err := p.tok.nextFloat()
		if err != nil {
			return fmt.Errorf("array %s value %d: %w", name, i, err)
		}
		values[i] = v
	}
	if p.section != "POINT_DATA" {
		return nil
	}
	arr := DataArray{Name: name, Components: comps, Values: values}
	if err := arr.setRange(); err != nil {
		return err
	}
	p.ds.Arrays = append(p.ds.Arrays, arr)
	return nil
}

func (p *parser) skip(n int, ctx string) error {
	for i := 0; i < n; i++ {
		if _, err := p.tok.next(); err != nil {
			return fmt.Errorf("%s value %d: %w", ctx, i, err)
		}
	}
	return nil
}

// skipMetadata discards a METADATA block, which runs until a blank-line
// delimited INFORMATION section ends. Token-wise the block is INFORMATION n
// followed by NAME/DATA pairs; the pragmatic rule is to skip tokens until a
// known top-level keyword reappears.
func (p *parser) skipMetadata() error {
	for {
		w, err := p.tok.peek()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch strings.ToUpper(w) {
		case "DATASET", "POINTS", "CELLS", "POLYGONS", "LINES", "VERTICES",
			"TRIANGLE_STRIPS", "CELL_TYPES", "POINT_DATA", "CELL_DATA",
			"SCALARS", "VECTORS", "NORMALS", "FIELD":
			return nil
		}
		p.tok.next()
	}
}
