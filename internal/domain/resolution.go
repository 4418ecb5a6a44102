package domain

// Resolution is the outcome of looking up a driver or vehicle:
// either a resolved id or explicitly unresolved. The zero value is Unresolved.
type Resolution struct {
	id string
}

func Resolved(id string) Resolution { return Resolution{id: id} }

func Unresolved() Resolution { return Resolution{} }

// Return the resolved id and whether the lookup succeeded.
func (r Resolution) ID() (string, bool) { return r.id, r.id != "" }

func (r Resolution) IsResolved() bool { return r.id != "" }

// Return the id or nil, for JSON and SQL boundaries.
func (r Resolution) Ptr() *string {
	if r.id == "" {
		return nil
	}
	id := r.id
	return &id
}

func ResolutionFromPtr(p *string) Resolution {
	if p == nil {
		return Unresolved()
	}
	return Resolved(*p)
}
