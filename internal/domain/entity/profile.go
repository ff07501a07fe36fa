package entity

// Provider names used for social profile records.
const (
	ProviderFacebook = "facebook"
	ProviderGoogle   = "google"
)

// FacebookProfile links a User to a Facebook identity, one-to-one.
// UserID and AccessToken are overwritten on every successful Facebook
// login (last-login-wins). Deleted together with the owning User.
type FacebookProfile struct {
	UserID      string // owning user's id
	AccessToken string
	ProviderUID string // Facebook's user id
}

// GoogleProfile links a User to a Google identity, one-to-one.
type GoogleProfile struct {
	UserID      string
	ProviderUID string
}
