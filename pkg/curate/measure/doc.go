// Package measure records per-stage timings of a curation run.
package measure
