package steps

import (
	"embed"

	"github.com/askiada/go-curate/pkg/curate"
)

//go:embed structure.go filters.go conformer.go label.go duplicates.go
var sources embed.FS

func source(file string) []byte {
	data, err := sources.ReadFile(file)
	if err != nil {
		panic(err)
	}
	return data
}

// Default is the catalog of every built-in step.
var Default = newDefault()

func newDefault() *curate.Catalog {
	c := curate.NewCatalog()
	structure := source("structure.go")
	c.MustRegister(NameFlagMixtures, structure, buildFlagMixtures)
	c.MustRegister(NameDemixLargestFragment, structure, buildDemixLargestFragment)
	c.MustRegister(NameSanitizeMolecule, structure, buildSanitizeMolecule)
	c.MustRegister(NameRemoveStereochem, structure, buildRemoveStereochem)
	c.MustRegister(NameNeutralize, structure, buildNeutralize)
	c.MustRegister(NameAddH, structure, buildAddH)
	c.MustRegister(NameRemoveHs, structure, buildRemoveHs)

	filters := source("filters.go")
	c.MustRegister(NameFilterMW, filters, buildFilterMW)
	c.MustRegister(NameFlagBoron, filters, buildFlagBoron)
	c.MustRegister(NameFlagInorganic, filters, buildFlagInorganic)

	c.MustRegister(NameAdd3D, source("conformer.go"), buildAdd3D)

	label := source("label.go")
	c.MustRegister(NameFlagMissingLabel, label, buildFlagMissingLabel)
	c.MustRegister(NameFillMissingLabel, label, buildFillMissingLabel)
	c.MustRegister(NameNumericLabel, label, buildNumericLabel)
	c.MustRegister(NameBinarizeLabel, label, buildBinarizeLabel)
	// FilterLabel wraps a Go function and cannot be rebuilt from a file.
	c.MustRegister(NameFilterLabel, label, nil)

	c.MustRegister(NameRemoveDuplicates, source("duplicates.go"), buildRemoveDuplicates)
	return c
}
