package curriculum

// Workspace is everything one editor session edits for a course
type Workspace struct {
	CourseID    string
	CourseTitle string
	Tree        *Tree
	Notes       *NoteList
}

// NewWorkspace creates an empty workspace for courseID
func NewWorkspace(courseID string) *Workspace {
	return &Workspace{
		CourseID: courseID,
		Tree:     NewTree(),
		Notes:    NewNoteList(),
	}
}

// Dirty reports whether any node holds edits the server has not confirmed
func (w *Workspace) Dirty() bool {
	for _, c := range w.Tree.chapters {
		if c.Dirty() {
			return true
		}
		for _, l := range c.lessons {
			if l.Dirty() {
				return true
			}
		}
	}
	for _, n := range w.Notes.notes {
		if n.Dirty() {
			return true
		}
	}
	return false
}

// Release drops every pending file and preview the workspace holds
func (w *Workspace) Release() {
	w.Tree.Release()
	w.Notes.Release()
}
