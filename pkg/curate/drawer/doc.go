// Package drawer renders a curation run as a Graphviz graph of its stages.
package drawer
