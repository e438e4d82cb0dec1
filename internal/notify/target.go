package notify

// TargetKind selects how a dispatch resolves its recipients.
type TargetKind int

const (
	TargetAllUsers TargetKind = iota
	TargetSpecificUser
	TargetExplicitToken
)

func (k TargetKind) String() string {
	switch k {
	case TargetSpecificUser:
		return "specific_user"
	case TargetExplicitToken:
		return "explicit_token"
	default:
		return "all_users"
	}
}

// Target is the recipient set of a dispatch.
type Target struct {
	Kind  TargetKind
	Value string
}

// AllUsers targets every stored token that passes validation.
func AllUsers() Target {
	return Target{Kind: TargetAllUsers}
}

// SpecificUser targets the token registered for userID.
func SpecificUser(userID string) Target {
	return Target{Kind: TargetSpecificUser, Value: userID}
}

// ExplicitToken targets a caller-supplied token that need not be stored.
func ExplicitToken(token string) Target {
	return Target{Kind: TargetExplicitToken, Value: token}
}
