package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// LabelKind tells which field of a Label is meaningful.
type LabelKind int

const (
	LabelMissing LabelKind = iota
	LabelText
	LabelNumber
)

// Label is the optional value paired with a structure.
type Label struct {
	Kind   LabelKind
	Text   string
	Number float64
}

// MissingLabel returns a label without a value.
func MissingLabel() Label { return Label{} }

// TextLabel returns a label holding raw text.
func TextLabel(s string) Label { return Label{Kind: LabelText, Text: s} }

// NumberLabel returns a numeric label.
func NumberLabel(f float64) Label { return Label{Kind: LabelNumber, Number: f} }

// ParseLabel turns raw input into a label. Empty text is a missing label.
func ParseLabel(raw string) Label {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return MissingLabel()
	}
	return TextLabel(raw)
}

// IsMissing reports whether l has no value.
func (l Label) IsMissing() bool {
	return l.Kind == LabelMissing
}

// Float returns the numeric value of l. Text labels are parsed.
func (l Label) Float() (float64, bool) {
	switch l.Kind {
	case LabelNumber:
		return l.Number, true
	case LabelText:
		f, err := strconv.ParseFloat(strings.TrimSpace(l.Text), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func (l Label) String() string {
	switch l.Kind {
	case LabelText:
		return l.Text
	case LabelNumber:
		return formatNumber(l.Number)
	default:
		return ""
	}
}

// MarshalJSON writes missing labels as null, numbers as numbers and text as strings.
func (l Label) MarshalJSON() ([]byte, error) {
	switch l.Kind {
	case LabelText:
		return json.Marshal(l.Text)
	case LabelNumber:
		return json.Marshal(l.Number)
	default:
		return []byte("null"), nil
	}
}
