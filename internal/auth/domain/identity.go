package domain

// CanonicalIdentity is the normalized identity extracted from a provider's
// profile payload. It exists only for the duration of a federated login:
// once an Account has been upserted from it, it is discarded.
type CanonicalIdentity struct {
	Provider   string
	ProviderID string
	Email      string // empty when the provider withheld it
	Name       string
}
