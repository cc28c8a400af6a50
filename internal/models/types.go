package models

// TagPair is the from/to pair picked in the two tag selectors.
type TagPair struct {
	From string
	To   string
}

// FileSelection identifies the two content snapshots to diff.
// OldFile is set only for renamed files and names the "before" path.
type FileSelection struct {
	Tag1    string
	Tag2    string
	File    string
	OldFile string
}

// OriginalFile returns the path used for the "before" side.
func (s FileSelection) OriginalFile() string {
	if s.OldFile != "" {
		return s.OldFile
	}
	return s.File
}

// Operation is the kind of change a file went through between two tags.
type Operation string

const (
	OpAdded    Operation = "A"
	OpDeleted  Operation = "D"
	OpModified Operation = "M"
	OpRenamed  Operation = "R"
)

// FileChange is one entry of a change list produced from the repository.
type FileChange struct {
	Name      string
	OldName   string
	Operation Operation
}

func (f FileChange) Less(other FileChange) bool {
	return f.Name < other.Name
}

// FileEntry is one entry of a change list as seen by the client.
type FileEntry struct {
	Tag1      string
	Tag2      string
	Name      string
	OldName   string
	Operation Operation
	Selected  bool
}

// Selection builds the selection signal carried for this entry.
func (e FileEntry) Selection() FileSelection {
	return FileSelection{
		Tag1:    e.Tag1,
		Tag2:    e.Tag2,
		File:    e.Name,
		OldFile: e.OldName,
	}
}
