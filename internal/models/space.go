package models

// Space is the accounting partition a budget or transaction belongs to.
// Rows created before spaces existed have no value stored; those are
// treated as personal at read time.
type Space string

const (
	SpacePersonal Space = "personal"
	SpaceBusiness Space = "business"
)

// Normalize maps an absent or empty space to personal.
func (s Space) Normalize() Space {
	if s == "" {
		return SpacePersonal
	}
	return s
}

// Valid reports whether the space is one of the known partitions.
// The empty value is valid because legacy rows carry it.
func (s Space) Valid() bool {
	switch s {
	case "", SpacePersonal, SpaceBusiness:
		return true
	}
	return false
}
