package chem

import "sort"

// implicitH stands for the implicit hydrogen of a stereocentre in neighbour
// orders. dropped marks an atom a transform did not keep.
const (
	implicitH = -1
	dropped   = -2
)

func flipChirality(tag string) string {
	switch tag {
	case "@":
		return "@@"
	case "@@":
		return "@"
	}
	return tag
}

// stereoOrder is the neighbour order Atom.Chirality refers to.
func (m *Mol) stereoOrder(idx int) []int {
	var out []int
	if m.atoms[idx].Hydrogens > 0 {
		out = append(out, implicitH)
	}
	nbs := m.neighbors(idx)
	atoms := make([]int, len(nbs))
	for i, nb := range nbs {
		atoms[i] = nb.atom
	}
	sort.Ints(atoms)
	return append(out, atoms...)
}

// oddPermutation reports whether to is an odd permutation of from. ok is false
// when the two do not hold the same distinct entries.
func oddPermutation(from, to []int) (odd bool, ok bool) {
	if len(from) != len(to) {
		return false, false
	}
	pos := make(map[int]int, len(from))
	for i, v := range from {
		if _, dup := pos[v]; dup {
			return false, false
		}
		pos[v] = i
	}
	perm := make([]int, len(to))
	for i, v := range to {
		p, found := pos[v]
		if !found {
			return false, false
		}
		perm[i] = p
	}
	inversions := 0
	for i := range perm {
		for j := i + 1; j < len(perm); j++ {
			if perm[i] > perm[j] {
				inversions++
			}
		}
	}
	return inversions%2 == 1, true
}

// reorderChirality returns the tag valid for order to, given tag is valid for
// order from. An empty tag is returned when the orders do not match.
func reorderChirality(tag string, from, to []int) string {
	odd, ok := oddPermutation(from, to)
	switch {
	case !ok:
		return ""
	case odd:
		return flipChirality(tag)
	}
	return tag
}

// setChirality stores tag, written against the neighbour order written, in
// the reference order of idx.
func (m *Mol) setChirality(idx int, tag string, written []int) {
	m.atoms[idx].Chirality = reorderChirality(tag, written, m.stereoOrder(idx))
}

// carryChirality moves the stereocentres of src onto out. atomMap renames an
// atom of src to its index in out, implicitH or dropped; hMap gives what the
// implicit hydrogen of a src centre became in out.
func carryChirality(src, out *Mol, atomMap func(int) int, hMap func(center int) int) {
	for i, a := range src.atoms {
		if a.Chirality == "" {
			continue
		}
		center := atomMap(i)
		if center < 0 {
			continue
		}
		order := src.stereoOrder(i)
		mapped := make([]int, len(order))
		for k, v := range order {
			if v == implicitH {
				mapped[k] = hMap(i)
			} else {
				mapped[k] = atomMap(v)
			}
		}
		out.atoms[center].Chirality = reorderChirality(a.Chirality, mapped, out.stereoOrder(center))
	}
}

// otherSubstituent returns the neighbour of atom that is neither partner nor
// ref, or -1 when there is none.
func (m *Mol) otherSubstituent(atom, partner, ref int) int {
	for _, nb := range m.neighbors(atom) {
		if nb.atom != partner && nb.atom != ref {
			return nb.atom
		}
	}
	return -1
}

// directionSign reads a bond direction character as seen from atom: +1 when
// the other end of the bond sits above atom, -1 below.
func directionSign(dir byte, atomWrittenFirst bool) int {
	up := dir == '/'
	if !atomWrittenFirst {
		up = !up
	}
	if up {
		return 1
	}
	return -1
}

// directionChar is the inverse of directionSign.
func directionChar(sign int, atomWrittenFirst bool) byte {
	up := sign > 0
	if !atomWrittenFirst {
		up = !up
	}
	if up {
		return '/'
	}
	return '\\'
}

// resolveGeometry turns the direction marks of a parsed SMILES into the
// geometry of each double bond. dirs holds the mark of every bond; the atom
// written first is the bond's Begin.
func (m *Mol) resolveGeometry(dirs []byte) {
	for b := range m.bonds {
		bond := &m.bonds[b]
		if bond.Order != Double {
			continue
		}
		refB, signB := m.directionMark(bond.Begin, bond.End, dirs)
		refE, signE := m.directionMark(bond.End, bond.Begin, dirs)
		if refB < 0 || refE < 0 {
			continue
		}
		bond.Refs = [2]int{refB, refE}
		bond.Geometry = Trans
		if signB == signE {
			bond.Geometry = Cis
		}
	}
}

// directionMark finds the first marked bond from atom to a neighbour other
// than partner.
func (m *Mol) directionMark(atom, partner int, dirs []byte) (int, int) {
	for _, nb := range m.neighbors(atom) {
		if nb.atom == partner || dirs[nb.bond] == 0 {
			continue
		}
		return nb.atom, directionSign(dirs[nb.bond], m.bonds[nb.bond].Begin == atom)
	}
	return -1, 0
}
