package chem

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		smiles    string
		atoms     int
		bonds     int
		hydrogens []int
	}{
		"butane":         {smiles: "CCCC", atoms: 4, bonds: 3, hydrogens: []int{3, 2, 2, 3}},
		"propanol":       {smiles: "CCCO", atoms: 4, bonds: 3, hydrogens: []int{3, 2, 2, 1}},
		"benzene":        {smiles: "c1ccccc1", atoms: 6, bonds: 6, hydrogens: []int{1, 1, 1, 1, 1, 1}},
		"acetic acid":    {smiles: "CC(=O)O", atoms: 4, bonds: 3, hydrogens: []int{3, 0, 0, 1}},
		"bracket charge": {smiles: "C[NH3+]", atoms: 2, bonds: 1, hydrogens: []int{3, 3}},
		"salt":           {smiles: "[Na+].[Cl-]", atoms: 2, bonds: 0, hydrogens: []int{0, 0}},
		"percent ring":   {smiles: "C%10CC%10", atoms: 3, bonds: 3, hydrogens: []int{2, 2, 2}},
		"chloroethane":   {smiles: "ClCC", atoms: 3, bonds: 2, hydrogens: []int{0, 2, 3}},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			m, err := Parse(tc.smiles)
			require.NoError(t, err)
			assert.Equal(t, tc.atoms, m.NumAtoms())
			assert.Equal(t, tc.bonds, m.NumBonds())
			got := make([]int, m.NumAtoms())
			for i := range got {
				got[i] = m.Atom(i).Hydrogens
			}
			assert.Equal(t, tc.hydrogens, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	for _, smiles := range []string{"", "   ", "C(", "C)", "C1CC", "X", "[Zz]", "C==C", "=C", "C.", "[C", "(C)", "C11"} {
		smiles := smiles
		t.Run(smiles, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(smiles)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))
			var perr *ParseError
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestMolWeight(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		smiles string
		want   float64
	}{
		"butane":    {smiles: "CCCC", want: 58.124},
		"propanol":  {smiles: "CCCO", want: 60.096},
		"pentamine": {smiles: "CCCCN", want: 73.139},
		"benzene":   {smiles: "c1ccccc1", want: 78.114},
		"deuterium": {smiles: "[2H]C", want: 17.035},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tc.want, MustParse(tc.smiles).MolWeight(), 1e-6)
		})
	}
}

func TestCanonical(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		a, b string
	}{
		"ethanol":       {a: "CCO", b: "OCC"},
		"branch order":  {a: "CC(O)N", b: "NC(C)O"},
		"salt order":    {a: "[Na+].[Cl-]", b: "[Cl-].[Na+]"},
		"ring start":    {a: "c1ccccc1C", b: "Cc1ccccc1"},
		"ring numbers":  {a: "C1CCCCC1", b: "C2CCCCC2"},
		"acid notation": {a: "OC(=O)C", b: "CC(O)=O"},
		"chiral order":  {a: "N[C@@H](C)C(=O)O", b: "C[C@H](N)C(=O)O"},
		"chiral ring":   {a: "C[C@H]1CCCN1", b: "C1CN[C@@H](C)C1"},
		"trans marks":   {a: "F/C=C/F", b: "F\\C=C\\F"},
		"cis marks":     {a: "F/C=C\\F", b: "F\\C=C/F"},
		"trans reorder": {a: "C/C=C/CC", b: "CC/C=C/C"},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			a, b := MustParse(tc.a), MustParse(tc.b)
			assert.Equal(t, a.String(), b.String())
			again := MustParse(a.String())
			assert.Equal(t, a.String(), again.String())
		})
	}
}

func TestCanonicalStereoDistinct(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		a, b string
	}{
		"enantiomers":     {a: "N[C@@H](C)C(=O)O", b: "N[C@H](C)C(=O)O"},
		"cis and trans":   {a: "F/C=C/F", b: "F/C=C\\F"},
		"flat and cis":    {a: "FC=CF", b: "F/C=C\\F"},
		"flat and chiral": {a: "NC(C)C(=O)O", b: "N[C@@H](C)C(=O)O"},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.NotEqual(t, MustParse(tc.a).String(), MustParse(tc.b).String())
		})
	}
}

func TestCanonicalStereoRoundTrip(t *testing.T) {
	t.Parallel()

	for _, smiles := range []string{
		"N[C@@H](C)C(=O)O",
		"N[C@H](C)C(=O)O",
		"C[C@H]1CCCN1",
		"F/C=C/F",
		"F/C=C\\F",
		"C/C=C/C=C\\C",
		"OC(=O)[C@@H]1CCCN1.Cl",
	} {
		smiles := smiles
		t.Run(smiles, func(t *testing.T) {
			t.Parallel()
			m := MustParse(smiles)
			again := MustParse(m.String())
			assert.True(t, again.HasStereo())
			assert.Equal(t, m.String(), again.String())
		})
	}
}

func TestCanonicalLiterals(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "C", MustParse("C").String())
	assert.Equal(t, "c1ccccc1", MustParse("c1ccccc1").String())
	assert.Equal(t, "[Cl-].[Na+]", MustParse("[Na+].[Cl-]").String())
	assert.Equal(t, "", (&Mol{}).String())
}

func TestCloneIsolation(t *testing.T) {
	t.Parallel()

	orig := MustParse("C[C@@H](O)N")
	cp := orig.Clone()
	cp.atoms[0].Element = "N"
	cp.bonds[0].Order = Double

	assert.Equal(t, "C", orig.Atom(0).Element)
	assert.Equal(t, Single, orig.Bond(0).Order)
}

func TestStereo(t *testing.T) {
	t.Parallel()

	m := MustParse("C[C@@H](O)N")
	assert.True(t, m.HasStereo())
	flat := m.WithoutStereo()
	assert.False(t, flat.HasStereo())
	assert.True(t, m.HasStereo())
	assert.Equal(t, MustParse("CC(O)N").String(), flat.String())

	trans := MustParse("F/C=C/F")
	assert.True(t, trans.HasStereo())
	assert.Equal(t, MustParse("FC=CF").String(), trans.WithoutStereo().String())

	withHs, err := m.AddHs()
	require.NoError(t, err)
	assert.True(t, withHs.HasStereo())
	back, err := withHs.RemoveHs()
	require.NoError(t, err)
	assert.Equal(t, m.String(), back.String())

	salt := MustParse("Cl.N[C@@H](C)C(=O)O")
	assert.Equal(t, MustParse("C[C@H](N)C(=O)O").String(), salt.LargestFragment().String())
	assert.NotEqual(t, MustParse("C[C@@H](N)C(=O)O").String(), salt.LargestFragment().String())
}

func TestFragments(t *testing.T) {
	t.Parallel()

	m := MustParse("CC.CCCC.O")
	assert.Equal(t, 3, m.NumFragments())
	assert.Equal(t, MustParse("CCCC").String(), m.LargestFragment().String())
	assert.Equal(t, 1, MustParse("CCO").NumFragments())
}

func TestNeutralize(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in, want string
	}{
		"carboxylate": {in: "CC(=O)[O-]", want: "CC(=O)O"},
		"ammonium":    {in: "C[NH3+]", want: "CN"},
		"quaternary":  {in: "C[N+](C)(C)C", want: "C[N+](C)(C)C"},
		"neutral":     {in: "CCO", want: "CCO"},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := MustParse(tc.in).Neutralize()
			require.NoError(t, err)
			assert.Equal(t, MustParse(tc.want).String(), got.String())
		})
	}
}

func TestHydrogens(t *testing.T) {
	t.Parallel()

	m := MustParse("CO")
	withH, err := m.AddHs()
	require.NoError(t, err)
	assert.Equal(t, 6, withH.NumAtoms())
	assert.Equal(t, 2, withH.NumHeavyAtoms())
	assert.InDelta(t, m.MolWeight(), withH.MolWeight(), 1e-9)

	back, err := withH.RemoveHs()
	require.NoError(t, err)
	assert.Equal(t, m.String(), back.String())

	kept, err := MustParse("[2H]C").RemoveHs()
	require.NoError(t, err)
	assert.Equal(t, 2, kept.NumAtoms())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, MustParse("CCO").Validate())
	assert.NoError(t, MustParse("c1cc[nH]c1").Validate())
	assert.NoError(t, MustParse("C[N+](C)(C)C").Validate())
	assert.ErrorIs(t, MustParse("C(C)(C)(C)(C)C").Validate(), ErrValence)
	assert.ErrorIs(t, MustParse("O=O=O").Validate(), ErrValence)
	assert.ErrorIs(t, (&Mol{}).Validate(), ErrEmptyMol)
}

func TestEmbed(t *testing.T) {
	t.Parallel()

	m := MustParse("CCO.C")
	a, err := m.Embed(context.Background(), 42)
	require.NoError(t, err)
	b, err := m.Embed(context.Background(), 42)
	require.NoError(t, err)

	assert.True(t, a.HasConformer())
	assert.False(t, m.HasConformer())
	assert.Len(t, a.Coords(), m.NumAtoms())
	assert.Equal(t, a.Coords(), b.Coords())
	assert.Equal(t, m.String(), a.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Embed(ctx, 42)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestElements(t *testing.T) {
	t.Parallel()

	m := MustParse("OB(O)c1ccccc1Cl")
	assert.Equal(t, []string{"B", "C", "Cl", "O"}, m.Elements())
	assert.True(t, m.HasElement("B"))
	assert.False(t, m.HasElement("N"))
	assert.Equal(t, -1, MustParse("CC(=O)[O-]").NetCharge())
}
