package chem

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// ErrParse is matched by every error returned by Parse.
var ErrParse = errors.New("unable to parse structure")

// ParseError describes where a SMILES string stopped making sense.
type ParseError struct {
	Input  string
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("smiles %q at %d: %s", e.Input, e.Pos, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

type ringBond struct {
	atom  int
	order BondOrder
	dir   byte
	set   bool
	// slot is the position of the closure in the written order of atom.
	slot int
}

type parser struct {
	input    string
	pos      int
	mol      *Mol
	prev     int
	stack    []int
	rings    map[int]ringBond
	order    BondOrder
	orderSet bool
	dir      byte
	implicit []int
	// written holds the neighbours of each atom in the order they appear in
	// the input; dirs the direction mark of each bond.
	written [][]int
	dirs    []byte
}

// Parse reads a SMILES string into a structure.
func Parse(smiles string) (*Mol, error) {
	p := &parser{
		input: strings.TrimSpace(smiles),
		mol:   &Mol{},
		prev:  -1,
		rings: make(map[int]ringBond),
	}
	if p.input == "" {
		return nil, p.fail("empty input")
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	for _, idx := range p.implicit {
		p.mol.atoms[idx].Hydrogens = p.mol.defaultHydrogens(idx)
	}
	for idx, a := range p.mol.atoms {
		if a.Chirality != "" {
			p.mol.setChirality(idx, a.Chirality, p.written[idx])
		}
	}
	p.mol.resolveGeometry(p.dirs)
	return p.mol, nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(smiles string) *Mol {
	m, err := Parse(smiles)
	if err != nil {
		panic(err)
	}
	return m
}

func (p *parser) fail(reason string) error {
	return &ParseError{Input: p.input, Pos: p.pos, Reason: reason}
}

func (p *parser) run() error {
	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		switch {
		case ch == '(':
			if p.prev < 0 {
				return p.fail("branch without a preceding atom")
			}
			p.stack = append(p.stack, p.prev)
			p.pos++
		case ch == ')':
			if len(p.stack) == 0 {
				return p.fail("unbalanced ')'")
			}
			if p.orderSet {
				return p.fail("bond without a following atom")
			}
			p.prev = p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			p.pos++
		case ch == '.':
			if p.orderSet || p.prev < 0 {
				return p.fail("misplaced '.'")
			}
			p.prev = -1
			p.pos++
		case ch == '-' || ch == '=' || ch == '#' || ch == ':' || ch == '/' || ch == '\\':
			if p.orderSet {
				return p.fail("two consecutive bonds")
			}
			if p.prev < 0 {
				return p.fail("bond without a preceding atom")
			}
			p.setBond(ch)
			p.pos++
		case ch >= '0' && ch <= '9':
			if err := p.ringClosure(int(ch - '0')); err != nil {
				return err
			}
			p.pos++
		case ch == '%':
			if p.pos+2 >= len(p.input) || !isDigit(p.input[p.pos+1]) || !isDigit(p.input[p.pos+2]) {
				return p.fail("'%' must be followed by two digits")
			}
			num := int(p.input[p.pos+1]-'0')*10 + int(p.input[p.pos+2]-'0')
			if err := p.ringClosure(num); err != nil {
				return err
			}
			p.pos += 3
		case ch == '[':
			if err := p.bracketAtom(); err != nil {
				return err
			}
		default:
			if err := p.organicAtom(); err != nil {
				return err
			}
		}
	}
	if len(p.stack) > 0 {
		return p.fail("unbalanced '('")
	}
	if p.prev < 0 {
		return p.fail("input ends without an atom")
	}
	if p.orderSet {
		return p.fail("bond without a following atom")
	}
	if len(p.rings) > 0 {
		return p.fail("unclosed ring")
	}
	return nil
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (p *parser) setBond(ch byte) {
	p.orderSet = true
	p.order = Single
	switch ch {
	case '=':
		p.order = Double
	case '#':
		p.order = Triple
	case ':':
		p.order = Aromatic
	case '/', '\\':
		p.dir = ch
	}
}

func (p *parser) takeBond(a, b int) (BondOrder, byte) {
	order, dir := p.order, p.dir
	if !p.orderSet {
		order = Single
		if p.mol.atoms[a].Aromatic && p.mol.atoms[b].Aromatic {
			order = Aromatic
		}
	}
	p.orderSet = false
	p.dir = 0
	p.order = 0
	return order, dir
}

func (p *parser) addAtom(atom Atom, implicit bool) {
	idx := len(p.mol.atoms)
	p.mol.atoms = append(p.mol.atoms, atom)
	p.written = append(p.written, nil)
	if implicit {
		p.implicit = append(p.implicit, idx)
	}
	if p.prev >= 0 {
		order, dir := p.takeBond(p.prev, idx)
		p.addBond(p.prev, idx, order, dir)
		p.written[p.prev] = append(p.written[p.prev], idx)
		p.written[idx] = append(p.written[idx], p.prev)
	}
	// a bracket hydrogen comes right after the preceding atom.
	if atom.Chirality != "" && atom.Hydrogens > 0 {
		p.written[idx] = append(p.written[idx], implicitH)
	}
	p.prev = idx
}

func (p *parser) addBond(begin, end int, order BondOrder, dir byte) {
	p.mol.bonds = append(p.mol.bonds, Bond{Begin: begin, End: end, Order: order})
	p.dirs = append(p.dirs, dir)
}

func (p *parser) ringClosure(num int) error {
	if p.prev < 0 {
		return p.fail("ring closure without a preceding atom")
	}
	open, ok := p.rings[num]
	if !ok {
		p.rings[num] = ringBond{atom: p.prev, order: p.order, dir: p.dir, set: p.orderSet, slot: len(p.written[p.prev])}
		p.written[p.prev] = append(p.written[p.prev], dropped)
		p.orderSet = false
		p.order = 0
		p.dir = 0
		return nil
	}
	delete(p.rings, num)
	if open.atom == p.prev {
		return p.fail("ring closure to the same atom")
	}
	for _, nb := range p.mol.neighbors(p.prev) {
		if nb.atom == open.atom {
			return p.fail("ring closure duplicates an existing bond")
		}
	}
	order, dir := open.order, open.dir
	switch {
	case p.orderSet:
		order, dir = p.order, p.dir
	case !open.set:
		order = Single
		if p.mol.atoms[open.atom].Aromatic && p.mol.atoms[p.prev].Aromatic {
			order = Aromatic
		}
	}
	p.orderSet = false
	p.order = 0
	p.dir = 0
	p.addBond(open.atom, p.prev, order, dir)
	p.written[open.atom][open.slot] = p.prev
	p.written[p.prev] = append(p.written[p.prev], open.atom)
	return nil
}

func (p *parser) organicAtom() error {
	rest := p.input[p.pos:]
	for _, sym := range []string{"Cl", "Br"} {
		if strings.HasPrefix(rest, sym) {
			p.addAtom(Atom{Element: sym}, true)
			p.pos += 2
			return nil
		}
	}
	ch := rune(rest[0])
	sym := string(unicode.ToUpper(ch))
	el, ok := lookupElement(sym)
	if !ok || !el.organic {
		return p.fail(fmt.Sprintf("unexpected character %q", ch))
	}
	aromatic := unicode.IsLower(ch)
	if aromatic && !el.aromatics {
		return p.fail(fmt.Sprintf("element %s cannot be aromatic", sym))
	}
	p.addAtom(Atom{Element: sym, Aromatic: aromatic}, true)
	p.pos++
	return nil
}

func (p *parser) bracketAtom() error {
	end := strings.IndexByte(p.input[p.pos:], ']')
	if end < 0 {
		return p.fail("unterminated bracket atom")
	}
	body := p.input[p.pos+1 : p.pos+end]
	atom, err := parseBracket(body)
	if err != nil {
		return p.fail(err.Error())
	}
	p.addAtom(atom, false)
	p.pos += end + 1
	return nil
}

func parseBracket(body string) (Atom, error) {
	var atom Atom
	i := 0
	for i < len(body) && isDigit(body[i]) {
		atom.Isotope = atom.Isotope*10 + int(body[i]-'0')
		i++
	}
	if i >= len(body) {
		return atom, errors.New("bracket atom without element")
	}
	sym, aromatic, n := bracketSymbol(body[i:])
	if n == 0 {
		return atom, errors.Errorf("unknown element in [%s]", body)
	}
	atom.Element, atom.Aromatic = sym, aromatic
	i += n
	if strings.HasPrefix(body[i:], "@@") {
		atom.Chirality = "@@"
		i += 2
	} else if strings.HasPrefix(body[i:], "@") {
		atom.Chirality = "@"
		i++
	}
	if i < len(body) && body[i] == 'H' {
		i++
		atom.Hydrogens = 1
		if i < len(body) && isDigit(body[i]) {
			atom.Hydrogens = int(body[i] - '0')
			i++
		}
	}
	if i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := 1
		if body[i] == '-' {
			sign = -1
		}
		ch := body[i]
		i++
		magnitude := 1
		switch {
		case i < len(body) && isDigit(body[i]):
			magnitude = int(body[i] - '0')
			i++
		default:
			for i < len(body) && body[i] == ch {
				magnitude++
				i++
			}
		}
		atom.Charge = sign * magnitude
	}
	if i < len(body) && body[i] == ':' {
		i++
		for i < len(body) && isDigit(body[i]) {
			i++
		}
	}
	if i != len(body) {
		return atom, errors.Errorf("unexpected %q in [%s]", body[i:], body)
	}
	return atom, nil
}

func bracketSymbol(s string) (string, bool, int) {
	if len(s) >= 2 && unicode.IsUpper(rune(s[0])) && unicode.IsLower(rune(s[1])) {
		if _, ok := lookupElement(s[:2]); ok {
			return s[:2], false, 2
		}
	}
	if len(s) >= 2 && (s[:2] == "se" || s[:2] == "as") {
		return strings.ToUpper(s[:1]) + s[1:2], true, 2
	}
	ch := rune(s[0])
	sym := string(unicode.ToUpper(ch))
	el, ok := lookupElement(sym)
	if !ok {
		return "", false, 0
	}
	if unicode.IsLower(ch) {
		if !el.aromatics {
			return "", false, 0
		}
		return sym, true, 1
	}
	return sym, false, 1
}
