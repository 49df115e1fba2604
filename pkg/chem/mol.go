package chem

import "sort"

// BondOrder is the order of a bond between two atoms.
type BondOrder int

const (
	Single BondOrder = iota + 1
	Double
	Triple
	Aromatic
)

// valence is the contribution of the bond to an atom's valence. Aromatic bonds
// count as one; the extra electron is added once per aromatic atom.
func (o BondOrder) valence() int {
	switch o {
	case Double:
		return 2
	case Triple:
		return 3
	default:
		return 1
	}
}

// Atom is a single atom of a structure.
type Atom struct {
	Element   string
	Isotope   int
	Charge    int
	Hydrogens int
	Aromatic  bool
	// Chirality is "", "@" or "@@". It is relative to the stereo reference
	// order of the atom: its implicit hydrogen first, then its neighbours by
	// ascending atom index.
	Chirality string
}

// Geometry is the arrangement of two substituents across a double bond.
type Geometry int

const (
	Unspecified Geometry = iota
	Cis
	Trans
)

// Bond joins two atoms by index.
type Bond struct {
	Begin, End int
	Order      BondOrder
	// Geometry is only set on double bonds. It places Refs[0], a neighbour
	// of Begin, relative to Refs[1], a neighbour of End.
	Geometry Geometry
	Refs     [2]int
}

// Point is a 3D coordinate in angstroms.
type Point [3]float64

// Mol is a chemical structure.
type Mol struct {
	atoms  []Atom
	bonds  []Bond
	coords []Point
}

// Clone returns a deep copy of m.
func (m *Mol) Clone() *Mol {
	if m == nil {
		return nil
	}
	out := &Mol{
		atoms: make([]Atom, len(m.atoms)),
		bonds: make([]Bond, len(m.bonds)),
	}
	copy(out.atoms, m.atoms)
	copy(out.bonds, m.bonds)
	if m.coords != nil {
		out.coords = make([]Point, len(m.coords))
		copy(out.coords, m.coords)
	}
	return out
}

// NumAtoms returns the number of atoms, explicit hydrogens included.
func (m *Mol) NumAtoms() int {
	return len(m.atoms)
}

// NumHeavyAtoms returns the number of non-hydrogen atoms.
func (m *Mol) NumHeavyAtoms() int {
	n := 0
	for _, a := range m.atoms {
		if a.Element != "H" {
			n++
		}
	}
	return n
}

// NumBonds returns the number of bonds.
func (m *Mol) NumBonds() int {
	return len(m.bonds)
}

// Atom returns a copy of the atom at idx.
func (m *Mol) Atom(idx int) Atom {
	return m.atoms[idx]
}

// Bond returns a copy of the bond at idx.
func (m *Mol) Bond(idx int) Bond {
	return m.bonds[idx]
}

// MolWeight returns the average molecular weight including implicit hydrogens.
// Isotope-labelled atoms use their mass number.
func (m *Mol) MolWeight() float64 {
	total := 0.0
	for _, a := range m.atoms {
		if a.Isotope > 0 {
			total += float64(a.Isotope)
		} else {
			el, _ := lookupElement(a.Element)
			total += el.mass
		}
		total += float64(a.Hydrogens) * hydrogenMass
	}
	return total
}

// HasElement reports whether any atom is of the given element.
func (m *Mol) HasElement(symbol string) bool {
	for _, a := range m.atoms {
		if a.Element == symbol {
			return true
		}
	}
	return false
}

// Elements returns the sorted distinct element symbols present in m.
func (m *Mol) Elements() []string {
	seen := make(map[string]struct{})
	for _, a := range m.atoms {
		seen[a.Element] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for sym := range seen {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// NetCharge returns the sum of formal charges.
func (m *Mol) NetCharge() int {
	total := 0
	for _, a := range m.atoms {
		total += a.Charge
	}
	return total
}

// HasConformer reports whether m carries 3D coordinates.
func (m *Mol) HasConformer() bool {
	return m.coords != nil
}

// Coords returns a copy of the 3D coordinates, or nil without a conformer.
func (m *Mol) Coords() []Point {
	if m.coords == nil {
		return nil
	}
	out := make([]Point, len(m.coords))
	copy(out, m.coords)
	return out
}

type neighbor struct {
	atom, bond int
}

func (m *Mol) neighbors(idx int) []neighbor {
	var out []neighbor
	for b, bond := range m.bonds {
		switch idx {
		case bond.Begin:
			out = append(out, neighbor{atom: bond.End, bond: b})
		case bond.End:
			out = append(out, neighbor{atom: bond.Begin, bond: b})
		}
	}
	return out
}

func (m *Mol) degree(idx int) int {
	return len(m.neighbors(idx))
}

// bondValence is the valence used by the bonds of atom idx, aromaticity included.
func (m *Mol) bondValence(idx int) int {
	total := 0
	for _, nb := range m.neighbors(idx) {
		total += m.bonds[nb.bond].Order.valence()
	}
	if m.atoms[idx].Aromatic {
		total++
	}
	return total
}

// defaultHydrogens is the implicit hydrogen count an organic-subset atom gets
// when written without brackets.
func (m *Mol) defaultHydrogens(idx int) int {
	el, ok := lookupElement(m.atoms[idx].Element)
	if !ok {
		return 0
	}
	used := m.bondValence(idx)
	for _, v := range el.valences {
		if v >= used {
			return v - used
		}
	}
	return 0
}
