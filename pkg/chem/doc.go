// Package chem is the chemical structure boundary used by the curation engine.
//
// It understands the subset of SMILES needed by the curation steps: the organic
// subset with implicit hydrogens, bracket atoms (isotope, chirality, hydrogen
// count, charge), bond orders, aromaticity, branches, ring closures and
// dot-separated components. A parsed structure is a *Mol. The engine treats it
// as an opaque handle: it only ever clones it, hands it to steps and asks for
// its canonical text.
//
// Every operation that changes a structure returns a new *Mol. The receiver is
// never modified, so a copy handed to a step cannot affect the caller's copy.
package chem

// Version is recorded in serialized workflows as the structure toolkit version.
const Version = "1.3.0"
