package domain

// CategoryNode is a category entry discovered while walking the tree
type CategoryNode struct {
	Name string `json:"name"` // Display name like "Summertime"
	URL  string `json:"url"`  // Absolute URL of the category listing
}

// Trail is the ordered list of category names from a matched target category
// down to the current listing. Extend never shares a backing array with its
// receiver, so sibling branches can extend the same trail independently.
type Trail []string

func NewTrail(name string) Trail {
	return Trail{name}
}

// Extend returns a new trail with name appended.
func (t Trail) Extend(name string) Trail {
	extended := make(Trail, len(t), len(t)+1)
	copy(extended, t)
	return append(extended, name)
}

// Clone returns a copy of the trail backed by its own array.
func (t Trail) Clone() Trail {
	if t == nil {
		return nil
	}
	cloned := make(Trail, len(t))
	copy(cloned, t)
	return cloned
}

// Root returns the matched top-level category, or "" for an empty trail.
func (t Trail) Root() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}
