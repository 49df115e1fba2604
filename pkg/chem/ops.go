package chem

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrValence       = errors.New("atom exceeds its allowed valence")
	ErrEmptyMol      = errors.New("structure has no atoms")
	ErrEmbedTooLarge = errors.New("structure too large to embed")
)

// Fragments returns the connected components of m as atom index lists, ordered
// by their lowest atom index.
func (m *Mol) Fragments() [][]int {
	seen := make([]bool, len(m.atoms))
	var out [][]int
	for start := range m.atoms {
		if seen[start] {
			continue
		}
		var frag []int
		queue := []int{start}
		seen[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			frag = append(frag, cur)
			for _, nb := range m.neighbors(cur) {
				if !seen[nb.atom] {
					seen[nb.atom] = true
					queue = append(queue, nb.atom)
				}
			}
		}
		out = append(out, frag)
	}
	return out
}

// NumFragments returns the number of disconnected components.
func (m *Mol) NumFragments() int {
	return len(m.Fragments())
}

// Subset returns a new structure made of the given atoms and the bonds between
// them. Stereo marks survive when every atom they refer to is kept.
func (m *Mol) Subset(atoms []int) *Mol {
	out, remap := m.subset(atoms)
	carryChirality(m, out, remap, func(int) int { return implicitH })
	return out
}

// subset copies atoms and bonds. Chirality tags are copied unchanged, so the
// caller must carry them. The returned func renames atoms of m into out.
func (m *Mol) subset(atoms []int) (*Mol, func(int) int) {
	index := make(map[int]int, len(atoms))
	out := &Mol{}
	for _, idx := range atoms {
		index[idx] = len(out.atoms)
		out.atoms = append(out.atoms, m.atoms[idx])
		if m.coords != nil {
			out.coords = append(out.coords, m.coords[idx])
		}
	}
	remap := func(idx int) int {
		if n, ok := index[idx]; ok {
			return n
		}
		return dropped
	}
	for _, b := range m.bonds {
		begin, end := remap(b.Begin), remap(b.End)
		if begin < 0 || end < 0 {
			continue
		}
		nb := Bond{Begin: begin, End: end, Order: b.Order}
		if b.Geometry != Unspecified {
			nb.Geometry, nb.Refs = m.keptGeometry(b, remap)
		}
		out.bonds = append(out.bonds, nb)
	}
	return out, remap
}

// keptGeometry renames the references of a double bond. A reference that is
// gone is replaced by the other substituent on its side, which flips the
// geometry.
func (m *Mol) keptGeometry(b Bond, remap func(int) int) (Geometry, [2]int) {
	geometry := b.Geometry
	var refs [2]int
	ends := [2][2]int{{b.Begin, b.End}, {b.End, b.Begin}}
	for k, ref := range b.Refs {
		if refs[k] = remap(ref); refs[k] >= 0 {
			continue
		}
		other := m.otherSubstituent(ends[k][0], ends[k][1], ref)
		if other < 0 || remap(other) < 0 {
			return Unspecified, [2]int{}
		}
		refs[k] = remap(other)
		geometry = opposite(geometry)
	}
	return geometry, refs
}

func opposite(g Geometry) Geometry {
	switch g {
	case Cis:
		return Trans
	case Trans:
		return Cis
	}
	return g
}

// LargestFragment returns the component with the most heavy atoms. Ties go to
// the heavier component, then to the lexically smaller canonical SMILES.
func (m *Mol) LargestFragment() *Mol {
	frags := m.Fragments()
	if len(frags) <= 1 {
		return m.Clone()
	}
	var best *Mol
	for _, frag := range frags {
		cand := m.Subset(frag)
		if best == nil || largerFragment(cand, best) {
			best = cand
		}
	}
	return best
}

func largerFragment(a, b *Mol) bool {
	if a.NumHeavyAtoms() != b.NumHeavyAtoms() {
		return a.NumHeavyAtoms() > b.NumHeavyAtoms()
	}
	if wa, wb := a.MolWeight(), b.MolWeight(); wa != wb {
		return wa > wb
	}
	return a.String() < b.String()
}

// HasStereo reports whether m carries tetrahedral or double bond stereo marks.
func (m *Mol) HasStereo() bool {
	for _, a := range m.atoms {
		if a.Chirality != "" {
			return true
		}
	}
	for _, b := range m.bonds {
		if b.Geometry != Unspecified {
			return true
		}
	}
	return false
}

// WithoutStereo returns a copy of m with every stereo mark cleared.
func (m *Mol) WithoutStereo() *Mol {
	out := m.Clone()
	for i := range out.atoms {
		out.atoms[i].Chirality = ""
	}
	for i := range out.bonds {
		out.bonds[i].Geometry = Unspecified
		out.bonds[i].Refs = [2]int{}
	}
	return out
}

func (m *Mol) hasChargedNeighbor(idx int, sign int) bool {
	for _, nb := range m.neighbors(idx) {
		if c := m.atoms[nb.atom].Charge; c*sign > 0 {
			return true
		}
	}
	return false
}

// Neutralize returns a copy of m where charges that can be removed by adding
// or removing hydrogens are removed. Zwitterion partners are left alone.
func (m *Mol) Neutralize() (*Mol, error) {
	out := m.Clone()
	for i, a := range out.atoms {
		switch {
		case a.Charge > 0 && a.Hydrogens > 0 && !m.hasChargedNeighbor(i, -1):
			drop := a.Charge
			if drop > a.Hydrogens {
				drop = a.Hydrogens
			}
			out.atoms[i].Hydrogens -= drop
			out.atoms[i].Charge -= drop
		case a.Charge < 0 && a.Element != "B" && !m.hasChargedNeighbor(i, 1):
			out.atoms[i].Hydrogens += -a.Charge
			out.atoms[i].Charge = 0
		}
	}
	if err := out.Validate(); err != nil {
		return nil, errors.Wrap(err, "neutralized structure is invalid")
	}
	return out, nil
}

// AddHs returns a copy of m where every implicit hydrogen is an explicit atom.
// Coordinates are dropped since the new atoms have none.
func (m *Mol) AddHs() (*Mol, error) {
	if len(m.atoms) == 0 {
		return nil, ErrEmptyMol
	}
	out := m.Clone()
	out.coords = nil
	heavy := len(out.atoms)
	firstH := make(map[int]int)
	for i := 0; i < heavy; i++ {
		for h := 0; h < out.atoms[i].Hydrogens; h++ {
			out.atoms = append(out.atoms, Atom{Element: "H"})
			out.bonds = append(out.bonds, Bond{Begin: i, End: len(out.atoms) - 1, Order: Single})
			if h == 0 {
				firstH[i] = len(out.atoms) - 1
			}
		}
		out.atoms[i].Hydrogens = 0
	}
	carryChirality(m, out, func(idx int) int { return idx }, func(center int) int { return firstH[center] })
	return out, nil
}

// RemoveHs returns a copy of m without plain explicit hydrogen atoms; their
// count moves back onto the heavy atom they were bonded to. Isotopic, charged
// and bridging hydrogens are kept.
func (m *Mol) RemoveHs() (*Mol, error) {
	if len(m.atoms) == 0 {
		return nil, ErrEmptyMol
	}
	drop := make(map[int]bool)
	hydrogens := make(map[int]int)
	for i, a := range m.atoms {
		if a.Element != "H" || a.Isotope != 0 || a.Charge != 0 {
			continue
		}
		nbs := m.neighbors(i)
		if len(nbs) != 1 || m.atoms[nbs[0].atom].Element == "H" {
			continue
		}
		drop[i] = true
		hydrogens[nbs[0].atom]++
	}
	keep := make([]int, 0, len(m.atoms)-len(drop))
	for i := range m.atoms {
		if !drop[i] {
			keep = append(keep, i)
		}
	}
	out, remap := m.subset(keep)
	for i, idx := range keep {
		out.atoms[i].Hydrogens += hydrogens[idx]
	}
	carryChirality(m, out, func(idx int) int {
		if drop[idx] {
			return implicitH
		}
		return remap(idx)
	}, func(int) int { return implicitH })
	return out, nil
}

// Validate checks every atom against its largest allowed valence, adjusted
// for formal charge.
func (m *Mol) Validate() error {
	if len(m.atoms) == 0 {
		return ErrEmptyMol
	}
	for i, a := range m.atoms {
		el, ok := lookupElement(a.Element)
		if !ok {
			return errors.Errorf("atom %d: unknown element %s", i, a.Element)
		}
		allowed := el.valences[len(el.valences)-1]
		switch a.Element {
		case "N", "P", "O", "S", "As", "Se":
			allowed += a.Charge
		case "B":
			allowed -= a.Charge
		case "C", "Si":
			allowed -= abs(a.Charge)
		default:
			allowed += abs(a.Charge)
		}
		used := m.bondValence(i) + a.Hydrogens
		if a.Aromatic {
			// pyrrole-type atoms donate a lone pair rather than a double bond.
			allowed++
		}
		if used > allowed {
			return errors.Wrapf(ErrValence, "atom %d (%s) uses %d of %d", i, a.Element, used, allowed)
		}
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

const (
	bondLength     = 1.5
	maxEmbedAtoms  = 1000
	relaxRounds    = 64
	relaxStepScale = 0.05
)

// Embed returns a copy of m carrying 3D coordinates. Placement is seeded so a
// given seed and structure always produce the same conformer. The context
// bounds the work; when it ends Embed returns its error.
func (m *Mol) Embed(ctx context.Context, seed int64) (*Mol, error) {
	n := len(m.atoms)
	if n == 0 {
		return nil, ErrEmptyMol
	}
	if n > maxEmbedAtoms {
		return nil, errors.Wrapf(ErrEmbedTooLarge, "%d atoms", n)
	}
	rng := rand.New(rand.NewSource(seed))
	coords := make([]Point, n)
	placed := make([]bool, n)
	offset := 0.0
	for _, frag := range m.Fragments() {
		root := frag[0]
		coords[root] = Point{offset, 0, 0}
		placed[root] = true
		queue := []int{root}
		for len(queue) > 0 {
			if err := interrupted(ctx); err != nil {
				return nil, errors.Wrap(err, "embedding interrupted")
			}
			cur := queue[0]
			queue = queue[1:]
			for k, nb := range m.neighbors(cur) {
				if placed[nb.atom] {
					continue
				}
				theta := float64(k)*2.399963 + rng.Float64()*0.3
				phi := math.Acos(1 - 2*rng.Float64())
				coords[nb.atom] = Point{
					coords[cur][0] + bondLength*math.Sin(phi)*math.Cos(theta),
					coords[cur][1] + bondLength*math.Sin(phi)*math.Sin(theta),
					coords[cur][2] + bondLength*math.Cos(phi),
				}
				placed[nb.atom] = true
				queue = append(queue, nb.atom)
			}
		}
		offset += 10
	}
	for round := 0; round < relaxRounds; round++ {
		if err := interrupted(ctx); err != nil {
			return nil, errors.Wrap(err, "embedding interrupted")
		}
		m.relax(coords)
	}
	out := m.Clone()
	out.coords = coords
	return out, nil
}

// interrupted reports a done context, or a deadline already passed even if the
// context timer has not fired yet.
func interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return context.DeadlineExceeded
	}
	return nil
}

// relax pushes non-bonded atoms apart and pulls bonded atoms toward bondLength.
func (m *Mol) relax(coords []Point) {
	bonded := make(map[[2]int]bool, len(m.bonds))
	for _, b := range m.bonds {
		bonded[[2]int{b.Begin, b.End}] = true
		bonded[[2]int{b.End, b.Begin}] = true
	}
	delta := make([]Point, len(coords))
	for i := range coords {
		for j := i + 1; j < len(coords); j++ {
			var d Point
			dist := 0.0
			for k := 0; k < 3; k++ {
				d[k] = coords[j][k] - coords[i][k]
				dist += d[k] * d[k]
			}
			dist = math.Sqrt(dist)
			if dist < 1e-6 {
				dist = 1e-6
				d = Point{1e-6, 0, 0}
			}
			var force float64
			switch {
			case bonded[[2]int{i, j}]:
				force = dist - bondLength
			case dist < 2*bondLength:
				force = -(2*bondLength - dist) / 2
			default:
				continue
			}
			for k := 0; k < 3; k++ {
				step := relaxStepScale * force * d[k] / dist
				delta[i][k] += step
				delta[j][k] -= step
			}
		}
	}
	for i := range coords {
		for k := 0; k < 3; k++ {
			coords[i][k] += delta[i][k]
		}
	}
}
