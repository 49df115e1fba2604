// Package steps holds the built-in curation steps and the catalog that lets
// workflow files refer to them by name.
package steps
