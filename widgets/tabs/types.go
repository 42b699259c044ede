package tabs

// TabID represents the different available tabs
type TabID int

const (
	LibraryTab TabID = iota
	SettingsTab
	CloseTab
	tabCount
)

var tabNames = [tabCount]string{"Library", "Segment", "Close"}

func (t TabID) String() string {
	if t < 0 || t >= tabCount {
		return "unknown"
	}
	return tabNames[t]
}
