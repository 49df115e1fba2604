// Command chemcurate builds, verifies and runs curation workflows over files of
// SMILES records.
package main
