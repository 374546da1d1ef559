package models

import "fmt"

// Label is the expense-split classification of a transaction.
type Label string

const (
	// LabelShared marks an expense split between both parties.
	LabelShared Label = "Geral"
	// LabelExclusive marks an expense that belongs to one party only.
	LabelExclusive Label = "Exclusiva"
)

// DefaultLabel is suggested when no rule exists for a description.
const DefaultLabel = LabelShared

// Labels lists the valid split labels.
var Labels = []Label{LabelShared, LabelExclusive}

// ParseLabel validates a label string.
func ParseLabel(s string) (Label, error) {
	for _, l := range Labels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown split label %q", s)
}

// Provenance tells whether a label was inferred or chosen by the user.
type Provenance string

const (
	ProvenanceSuggested Provenance = "suggested"
	ProvenanceConfirmed Provenance = "confirmed"
)

// SplitLabel is a label tagged with its provenance.
type SplitLabel struct {
	Label      Label      `json:"label"`
	Provenance Provenance `json:"provenance"`
}

// Suggested returns a machine-inferred split label.
func Suggested(l Label) SplitLabel {
	return SplitLabel{Label: l, Provenance: ProvenanceSuggested}
}

// Confirmed returns a user-chosen split label.
func Confirmed(l Label) SplitLabel {
	return SplitLabel{Label: l, Provenance: ProvenanceConfirmed}
}

// IsConfirmed reports whether the user explicitly chose this label.
func (s SplitLabel) IsConfirmed() bool {
	return s.Provenance == ProvenanceConfirmed
}
