package domain

// TokenPair is what login-style operations hand back to the client. The
// stored refresh token is the only server-side revocation anchor: a
// refresh token that no longer matches it is dead regardless of its
// cryptographic validity.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
