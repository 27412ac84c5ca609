package enums

// LineStatus summarises how far a plan line has progressed.
type LineStatus string

const (
	LineStatusNotStarted LineStatus = "not_started"
	LineStatusInProgress LineStatus = "in_progress"
	LineStatusComplete   LineStatus = "complete"
)

// String implements fmt.Stringer.
func (s LineStatus) String() string {
	return string(s)
}
