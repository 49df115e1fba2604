package chem

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// String returns the canonical SMILES of m. Components are written in sorted
// order and joined with '.'.
func (m *Mol) String() string {
	if m == nil || len(m.atoms) == 0 {
		return ""
	}
	ranks := m.canonicalRanks()
	frags := m.Fragments()
	parts := make([]string, 0, len(frags))
	for _, frag := range frags {
		start := frag[0]
		for _, idx := range frag {
			if ranks[idx] < ranks[start] {
				start = idx
			}
		}
		w := newWriter(m, ranks)
		w.write(start)
		parts = append(parts, w.out.String())
	}
	sort.Strings(parts)
	return strings.Join(parts, ".")
}

// Canonical is an alias of String, named for the structure boundary contract.
func (m *Mol) Canonical() string {
	return m.String()
}

func (m *Mol) atomInvariant(idx int) string {
	a := m.atoms[idx]
	el, _ := lookupElement(a.Element)
	// Only the presence of a stereo tag ranks: its value depends on atom numbering.
	return fmt.Sprintf("%03d|%d|%d|%d|%t|%d|%t", el.number, a.Isotope, a.Charge, a.Hydrogens, a.Aromatic, m.degree(idx), a.Chirality != "")
}

// canonicalRanks refines atom invariants by neighbourhood until stable, then
// breaks remaining ties by the lowest index and refines again.
func (m *Mol) canonicalRanks() []int {
	n := len(m.atoms)
	keys := make([]string, n)
	for i := range keys {
		keys[i] = m.atomInvariant(i)
	}
	ranks := rankKeys(keys)
	for {
		ranks = m.refine(ranks)
		tied := -1
		counts := make(map[int]int, n)
		for _, r := range ranks {
			counts[r]++
		}
		for i, r := range ranks {
			if counts[r] > 1 && (tied < 0 || r < ranks[tied]) {
				tied = i
			}
		}
		if tied < 0 {
			return ranks
		}
		for i := range ranks {
			ranks[i] *= 2
		}
		ranks[tied]--
		ranks = rankInts(ranks)
	}
}

func (m *Mol) refine(ranks []int) []int {
	classes := distinct(ranks)
	for {
		keys := make([]string, len(ranks))
		for i := range ranks {
			nbs := m.neighbors(i)
			parts := make([]string, 0, len(nbs))
			for _, nb := range nbs {
				parts = append(parts, fmt.Sprintf("%06d:%d", ranks[nb.atom], m.bonds[nb.bond].Order))
			}
			sort.Strings(parts)
			keys[i] = fmt.Sprintf("%06d|%s", ranks[i], strings.Join(parts, ","))
		}
		next := rankKeys(keys)
		nextClasses := distinct(next)
		if nextClasses == classes {
			return next
		}
		ranks, classes = next, nextClasses
	}
}

func rankKeys(keys []string) []int {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	pos := make(map[string]int, len(sorted))
	r := 0
	for i, k := range sorted {
		if i > 0 && k != sorted[i-1] {
			r++
		}
		pos[k] = r
	}
	out := make([]int, len(keys))
	for i, k := range keys {
		out[i] = pos[k]
	}
	return out
}

func rankInts(values []int) []int {
	keys := make([]string, len(values))
	for i, v := range values {
		keys[i] = fmt.Sprintf("%012d", v+1)
	}
	return rankKeys(keys)
}

func distinct(values []int) int {
	seen := make(map[int]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

type child struct {
	atom, bond int
}

type writer struct {
	mol      *Mol
	ranks    []int
	visited  []bool
	parent   []int
	// seq is the position of each atom in the output.
	seq      []int
	next     int
	children [][]child
	rings    [][]int
	ringSeen map[int]bool
	digits   map[int]int
	inUse    map[int]bool
	dirs     map[int]byte
	out      strings.Builder
}

func newWriter(m *Mol, ranks []int) *writer {
	parent := make([]int, len(m.atoms))
	for i := range parent {
		parent[i] = -1
	}
	return &writer{
		mol:      m,
		ranks:    ranks,
		visited:  make([]bool, len(m.atoms)),
		parent:   parent,
		seq:      make([]int, len(m.atoms)),
		children: make([][]child, len(m.atoms)),
		rings:    make([][]int, len(m.atoms)),
		ringSeen: make(map[int]bool),
		digits:   make(map[int]int),
		inUse:    make(map[int]bool),
		dirs:     make(map[int]byte),
	}
}

func (w *writer) sortedNeighbors(idx int) []neighbor {
	nbs := w.mol.neighbors(idx)
	sort.Slice(nbs, func(i, j int) bool {
		return w.ranks[nbs[i].atom] < w.ranks[nbs[j].atom]
	})
	return nbs
}

func (w *writer) walk(idx, parentBond int) {
	w.visited[idx] = true
	w.seq[idx] = w.next
	w.next++
	for _, nb := range w.sortedNeighbors(idx) {
		if nb.bond == parentBond {
			continue
		}
		if w.visited[nb.atom] {
			if !w.ringSeen[nb.bond] {
				w.ringSeen[nb.bond] = true
				w.rings[nb.atom] = append(w.rings[nb.atom], nb.bond)
				w.rings[idx] = append(w.rings[idx], nb.bond)
			}
			continue
		}
		w.children[idx] = append(w.children[idx], child{atom: nb.atom, bond: nb.bond})
		w.parent[nb.atom] = idx
		w.walk(nb.atom, nb.bond)
	}
}

func (w *writer) write(start int) {
	w.walk(start, -1)
	w.assignDirections()
	w.emit(start)
}

func (w *writer) otherEnd(bond, idx int) int {
	if b := w.mol.bonds[bond]; b.Begin != idx {
		return b.Begin
	}
	return w.mol.bonds[bond].End
}

// emittedOrder is the neighbour order of idx as a reader of the output sees
// it: the preceding atom, the bracket hydrogen, ring closures, then branches.
func (w *writer) emittedOrder(idx int) []int {
	var out []int
	if p := w.parent[idx]; p >= 0 {
		out = append(out, p)
	}
	if w.mol.atoms[idx].Hydrogens > 0 {
		out = append(out, implicitH)
	}
	for _, bond := range w.rings[idx] {
		out = append(out, w.otherEnd(bond, idx))
	}
	for _, c := range w.children[idx] {
		out = append(out, c.atom)
	}
	return out
}

func (w *writer) chirality(idx int) string {
	tag := w.mol.atoms[idx].Chirality
	if tag == "" {
		return ""
	}
	return reorderChirality(tag, w.mol.stereoOrder(idx), w.emittedOrder(idx))
}

// assignDirections picks one single bond on each side of every stereo double
// bond and gives it the '/' or '\' mark its geometry calls for. Bonds are
// handled in output order; a mark set for an earlier double bond is reused.
func (w *writer) assignDirections() {
	var stereo []int
	for b, bond := range w.mol.bonds {
		if bond.Geometry != Unspecified && w.visited[bond.Begin] && w.visited[bond.End] {
			stereo = append(stereo, b)
		}
	}
	key := func(b int) (int, int) {
		x, y := w.seq[w.mol.bonds[b].Begin], w.seq[w.mol.bonds[b].End]
		if x > y {
			x, y = y, x
		}
		return x, y
	}
	sort.Slice(stereo, func(i, j int) bool {
		xi, yi := key(stereo[i])
		xj, yj := key(stereo[j])
		if xi != xj {
			return xi < xj
		}
		return yi < yj
	})

	for _, b := range stereo {
		bond := w.mol.bonds[b]
		ends := [2]int{bond.Begin, bond.End}
		var markers, subs [2]int
		ok := true
		for k := range ends {
			markers[k], subs[k] = w.marker(ends[k], ends[1-k])
			ok = ok && markers[k] >= 0
		}
		if !ok {
			continue
		}
		cis := bond.Geometry == Cis
		for k := range ends {
			if subs[k] != bond.Refs[k] {
				cis = !cis
			}
		}
		first := [2]bool{w.seq[ends[0]] < w.seq[subs[0]], w.seq[ends[1]] < w.seq[subs[1]]}
		sign := 1
		if d, set := w.dirs[markers[0]]; set {
			sign = directionSign(d, first[0])
		} else if d, set := w.dirs[markers[1]]; set {
			sign = directionSign(d, first[1])
			if !cis {
				sign = -sign
			}
		}
		signs := [2]int{sign, sign}
		if !cis {
			signs[1] = -sign
		}
		for k := range ends {
			if _, set := w.dirs[markers[k]]; !set {
				w.dirs[markers[k]] = directionChar(signs[k], first[k])
			}
		}
	}
}

// marker returns the bond that carries the direction mark for atom, and the
// substituent it leads to. Ring closures are never marked.
func (w *writer) marker(atom, partner int) (int, int) {
	bond, sub := -1, -1
	for _, nb := range w.mol.neighbors(atom) {
		if nb.atom == partner || w.ringSeen[nb.bond] || w.mol.bonds[nb.bond].Order != Single {
			continue
		}
		if _, set := w.dirs[nb.bond]; set {
			return nb.bond, nb.atom
		}
		if sub < 0 || w.seq[nb.atom] < w.seq[sub] {
			bond, sub = nb.bond, nb.atom
		}
	}
	return bond, sub
}

func (w *writer) emit(idx int) {
	w.out.WriteString(w.atomText(idx))
	for _, bond := range w.rings[idx] {
		if digit, open := w.digits[bond]; open {
			w.out.WriteString(w.bondText(bond))
			w.out.WriteString(ringLabel(digit))
			delete(w.digits, bond)
			delete(w.inUse, digit)
			continue
		}
		digit := 1
		for w.inUse[digit] {
			digit++
		}
		w.inUse[digit] = true
		w.digits[bond] = digit
		w.out.WriteString(ringLabel(digit))
	}
	kids := w.children[idx]
	for i, c := range kids {
		last := i == len(kids)-1
		if !last {
			w.out.WriteByte('(')
		}
		w.out.WriteString(w.bondText(c.bond))
		w.emit(c.atom)
		if !last {
			w.out.WriteByte(')')
		}
	}
}

func ringLabel(digit int) string {
	if digit < 10 {
		return strconv.Itoa(digit)
	}
	return "%" + strconv.Itoa(digit)
}

func (w *writer) bondText(idx int) string {
	b := w.mol.bonds[idx]
	bothAromatic := w.mol.atoms[b.Begin].Aromatic && w.mol.atoms[b.End].Aromatic
	switch b.Order {
	case Double:
		return "="
	case Triple:
		return "#"
	case Aromatic:
		if bothAromatic {
			return ""
		}
		return ":"
	}
	if d, ok := w.dirs[idx]; ok {
		return string(d)
	}
	if bothAromatic {
		return "-"
	}
	return ""
}

func (w *writer) atomText(idx int) string {
	a := w.mol.atoms[idx]
	symbol := a.Element
	if a.Aromatic {
		symbol = strings.ToLower(symbol)
	}
	el, _ := lookupElement(a.Element)
	plain := el.organic && a.Isotope == 0 && a.Charge == 0 && a.Chirality == "" &&
		a.Hydrogens == w.mol.defaultHydrogens(idx)
	if plain {
		return symbol
	}
	var sb strings.Builder
	sb.WriteByte('[')
	if a.Isotope > 0 {
		sb.WriteString(strconv.Itoa(a.Isotope))
	}
	sb.WriteString(symbol)
	sb.WriteString(w.chirality(idx))
	switch {
	case a.Hydrogens == 1:
		sb.WriteByte('H')
	case a.Hydrogens > 1:
		sb.WriteString("H" + strconv.Itoa(a.Hydrogens))
	}
	switch {
	case a.Charge == 1:
		sb.WriteByte('+')
	case a.Charge == -1:
		sb.WriteByte('-')
	case a.Charge > 1:
		sb.WriteString("+" + strconv.Itoa(a.Charge))
	case a.Charge < -1:
		sb.WriteString(strconv.Itoa(a.Charge))
	}
	sb.WriteByte(']')
	return sb.String()
}
