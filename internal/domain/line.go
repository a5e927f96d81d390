package domain

import "fmt"

// OutputLine is the atomic unit flowing out of the fan-out executor. Text is
// the raw remote output, never margin-prefixed; Seq preserves the emission
// order within one source. Header lines carry the per-node banner and only
// appear on the raw display path.
type OutputLine struct {
	Node   NodeID
	Seq    int
	Text   string
	Header bool
}

// Timestamp is a normalized "YYYY-MM-DD HH:MM:SS[.ffffff]" value whose
// lexicographic order equals chronological order. The zero value is undefined
// and sorts after every defined timestamp: a line with no temporal anchor
// cannot be placed before anything that has one.
type Timestamp struct {
	value string
}

func NewTimestamp(value string) Timestamp {
	return Timestamp{value: value}
}

func (t Timestamp) Defined() bool {
	return t.value != ""
}

func (t Timestamp) String() string {
	return t.value
}

// Before reports whether t orders strictly before other.
func (t Timestamp) Before(other Timestamp) bool {
	if !t.Defined() {
		return false
	}
	if !other.Defined() {
		return true
	}
	return t.value < other.value
}

// CollatedRecord is the collator's output unit.
type CollatedRecord struct {
	Time Timestamp
	Node NodeID
	Text string
}

// String renders the record in merge-mode output form. Records that never
// acquired a timestamp render without one.
func (r CollatedRecord) String() string {
	if !r.Time.Defined() {
		return fmt.Sprintf("%s %s", r.Node, r.Text)
	}
	return fmt.Sprintf("%s %s %s", r.Time, r.Node, r.Text)
}
