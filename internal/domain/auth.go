package domain

// Identity is the authenticated subject decoded from a verified token.
// The role is fixed for the lifetime of the token.
type Identity struct {
	SubjectID int64
	Email     string
	Role      Role
}

// Is reports whether the identity is the given subject.
func (i *Identity) Is(subjectID int64) bool {
	return i != nil && i.SubjectID == subjectID
}
