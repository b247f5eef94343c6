package domain

// Agent models a support agent who can be assigned tickets and act as the
// authenticated principal.
type Agent struct {
	ID    string
	Name  string
	Email string
}

// Principal represents the authenticated caller.
type Principal struct {
	ID   string
	Name string
}
