package main

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-curate/pkg/curate"
	"github.com/askiada/go-curate/pkg/curate/model"
)

// readInputs parses tab separated records. A line holds a SMILES, an id and a
// SMILES, or an id, a SMILES and a label. Blank lines and lines starting with
// '#' are skipped.
func readInputs(r io.Reader) ([]curate.Input, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var inputs []curate.Input
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return inputs, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "read input")
		}
		line, _ := reader.FieldPos(0)
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		var in curate.Input
		switch len(fields) {
		case 1:
			in.Smiles = fields[0]
		case 2:
			in.ID, in.Smiles = fields[0], fields[1]
		case 3:
			in.ID, in.Smiles, in.Label = fields[0], fields[1], model.ParseLabel(fields[2])
		default:
			return nil, errors.Errorf("input line %d: want 1 to 3 fields, got %d", line, len(fields))
		}
		inputs = append(inputs, in)
	}
}

func readInputFile(path string) ([]curate.Input, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open input %s", path)
	}
	defer file.Close()
	return readInputs(file)
}
