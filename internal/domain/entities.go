// Package domain defines the core entities and interfaces for branch-tabs.
package domain

// BranchID identifies a branch by its short, human-readable name.
// The empty BranchID means HEAD is detached.
type BranchID string

// TabLocation references an open document.
type TabLocation struct {
	// Location is a URI-like string (file:///path, untitled:Untitled-1, ...).
	Location string `json:"location" yaml:"location"`

	// Group is the zero-based editor group the tab lived in. Nil when unknown.
	Group *int `json:"group,omitempty" yaml:"group,omitempty"`
}

// GroupOr returns the recorded group, or def when none was recorded.
func (l TabLocation) GroupOr(def int) int {
	if l.Group == nil {
		return def
	}
	return *l.Group
}

// SnapshotEntry is one tab captured at persist time.
type SnapshotEntry = TabLocation

// Snapshot is the ordered list of tabs open at one moment.
type Snapshot []SnapshotEntry

// Clone returns a deep copy of the snapshot. A nil snapshot clones to an empty one.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, 0, len(s))
	for _, e := range s {
		c := SnapshotEntry{Location: e.Location}
		if e.Group != nil {
			g := *e.Group
			c.Group = &g
		}
		out = append(out, c)
	}
	return out
}

// Entry builds a SnapshotEntry with a group index.
func Entry(location string, group int) SnapshotEntry {
	return SnapshotEntry{Location: location, Group: &group}
}

// Tab is a single tab as reported by the editor.
type Tab struct {
	// Location is empty for views that are not documents (settings, welcome page, ...).
	Location string `json:"location,omitempty"`

	// Label is the display title. Informational only.
	Label string `json:"label,omitempty"`
}

// TabGroup is one editor column with its tabs in document order.
type TabGroup struct {
	Index int   `json:"index"`
	Tabs  []Tab `json:"tabs"`
}

// Decision is the outcome of a DecisionPrompt.
type Decision int

const (
	// DecisionNone means the prompt was dismissed without a choice.
	DecisionNone Decision = iota

	// DecisionYes is the affirmative choice.
	DecisionYes

	// DecisionNo is the negative choice.
	DecisionNo
)

// String implements fmt.Stringer.
func (d Decision) String() string {
	switch d {
	case DecisionYes:
		return "yes"
	case DecisionNo:
		return "no"
	default:
		return "none"
	}
}

// TransitionAction describes what a controller did in response to a notification.
type TransitionAction string

// Transition actions.
const (
	ActionNone      TransitionAction = "none"
	ActionInitial   TransitionAction = "initial"
	ActionRestored  TransitionAction = "restored"
	ActionKeptTabs  TransitionAction = "kept_tabs"
	ActionClosedAll TransitionAction = "closed_all"
	ActionAborted   TransitionAction = "aborted"
)

// TransitionResult summarizes one processed notification.
type TransitionResult struct {
	ID       string
	Root     string
	From     BranchID
	To       BranchID
	Action   TransitionAction
	Decision Decision

	// Opened counts restored entries that opened successfully.
	Opened int

	// Failures holds one error per entry that could not be opened.
	Failures []error

	// Err is set when the transition was aborted.
	Err error
}

// Setting keys read from the SettingsSource at every transition.
const (
	SettingBringTabsOnNoSavedAssociation    = "bring_tabs_on_no_saved_association"
	SettingShowPromptWhenNoSavedAssociation = "show_prompt_when_no_saved_association"
)

// Setting defaults.
const (
	DefaultBringTabsOnNoSavedAssociation    = true
	DefaultShowPromptWhenNoSavedAssociation = true
)

// BranchTabsKey is the key under which the branch -> snapshot mapping is persisted.
const BranchTabsKey = "branchTabs"
