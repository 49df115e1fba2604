// Package curate runs chemical records through an ordered workflow of curation
// steps.
//
// A step is either a Filter, which rejects records without touching them, or
// an Update, which returns a new structure or label. Steps carry a fixed rank
// and run in ascending rank; equal ranks keep the order they were given in.
// The engine applies each step to every record still alive before moving on to
// the next one, so batch-wide steps such as duplicate removal see the whole
// surviving population.
//
// A workflow can be saved to a YAML file together with a hash of its
// configuration, a hash of the source of every step it uses and the versions
// of the packages it depends on. Loading the file checks all three. A workflow
// loaded without those checks is untrusted, and every result it produces says
// so in its report.
package curate

// Version is recorded in saved workflows and checked when they are loaded.
const Version = "0.4.0"
