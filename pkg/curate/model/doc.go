// Package model provides the plain data types shared by the curate engine,
// its steps and its run options: ranks, step kinds, construction parameters,
// labels, annotations and per-step information.
package model
