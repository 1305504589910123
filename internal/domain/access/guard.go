package access

// Principal is what the guard needs to know about a session.
type Principal struct {
	Token string
	Role  Role
}

type Decision struct {
	Allowed  bool
	Redirect string
}

// Check allows a view when a token is present and, if allowed is non-empty,
// the role is a member of it. Everything else redirects to the login entry
// point; a missing session is a normal state, not an error.
func Check(p *Principal, allowed []Role) Decision {
	if p == nil || p.Token == "" {
		return Decision{Redirect: LoginPath}
	}
	if len(allowed) == 0 {
		return Decision{Allowed: true}
	}
	for _, role := range allowed {
		if p.Role == role {
			return Decision{Allowed: true}
		}
	}
	return Decision{Redirect: LoginPath}
}
