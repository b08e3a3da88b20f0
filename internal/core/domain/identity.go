package domain

// Identity is what the identity provider vouches for after verifying a bearer
// credential.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
}

// Account is an identity-provider account.
type Account struct {
	UID           string
	Email         string
	DisplayName   string
	PhotoURL      *string
	EmailVerified bool
	Disabled      bool
}

type NewAccount struct {
	Email       string
	Password    string
	DisplayName string
}

type AccountChanges struct {
	DisplayName Optional[string]
	PhotoURL    Optional[string]
}
