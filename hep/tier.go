package hep

// Tier is an object quality working point.
type Tier int

const (
	// NotClean marks a jet that overlaps a cleaning reference object.
	NotClean Tier = iota - 1
	None
	Loose
	Medium
	Tight
)

// String returns the lower case tier name used in derived names.
func (t Tier) String() string {
	switch t {
	case NotClean:
		return "notclean"
	case Loose:
		return "loose"
	case Medium:
		return "medium"
	case Tight:
		return "tight"
	default:
		return ""
	}
}

// Title returns the capitalized tier name used in column and histogram
// keys such as Muon_tightIsoMediumSF or nMediumCSVbTag.
func (t Tier) Title() string {
	switch t {
	case Loose:
		return "Loose"
	case Medium:
		return "Medium"
	case Tight:
		return "Tight"
	default:
		return ""
	}
}

// Satisfies reports whether t meets the floor.
func (t Tier) Satisfies(floor Tier) bool {
	return t >= floor
}
