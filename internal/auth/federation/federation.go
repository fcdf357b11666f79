// Package federation normalizes the profile payloads of the supported
// identity providers into a single canonical shape. Each provider nests
// its attributes differently; the per-provider extractors here are the
// only place in the codebase that knows about those layouts.
package federation

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/meongtory/auth/internal/auth/domain"
)

const (
	ProviderGoogle = "google"
	ProviderKakao  = "kakao"
	ProviderNaver  = "naver"
)

// ErrUnknownProvider is returned for any provider name outside the closed
// set above. Unknown providers fail closed rather than falling back to a
// generic extraction.
var ErrUnknownProvider = errors.New("federation: unknown provider")

var extractors = map[string]func(map[string]any) (domain.CanonicalIdentity, error){
	ProviderGoogle: parseGoogle,
	ProviderKakao:  parseKakao,
	ProviderNaver:  parseNaver,
}

// Parse extracts a canonical identity from a provider's raw profile
// attributes. The same attrs always yield the same identity.
func Parse(provider string, attrs map[string]any) (domain.CanonicalIdentity, error) {
	extract, ok := extractors[provider]
	if !ok {
		return domain.CanonicalIdentity{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	return extract(attrs)
}

// Google returns its profile flat: sub, email and name at the top level.
func parseGoogle(attrs map[string]any) (domain.CanonicalIdentity, error) {
	id := stringAttr(attrs, "sub")
	if id == "" {
		return domain.CanonicalIdentity{}, errors.New("federation: google profile missing sub")
	}

	return domain.CanonicalIdentity{
		Provider:   ProviderGoogle,
		ProviderID: id,
		Email:      stringAttr(attrs, "email"),
		Name:       stringAttr(attrs, "name"),
	}, nil
}

// Kakao nests the email under kakao_account and the nickname under
// properties; the numeric top-level id is the stable identifier. Accounts
// without a consented nickname fall back to a fixed display name.
func parseKakao(attrs map[string]any) (domain.CanonicalIdentity, error) {
	id := stringAttr(attrs, "id")
	if id == "" {
		return domain.CanonicalIdentity{}, errors.New("federation: kakao profile missing id")
	}

	identity := domain.CanonicalIdentity{
		Provider:   ProviderKakao,
		ProviderID: id,
		Name:       "Kakao User",
	}

	if account, ok := attrs["kakao_account"].(map[string]any); ok {
		identity.Email = stringAttr(account, "email")
	}
	if props, ok := attrs["properties"].(map[string]any); ok {
		if nickname := stringAttr(props, "nickname"); nickname != "" {
			identity.Name = nickname
		}
	}

	return identity, nil
}

// Naver wraps the entire profile in a "response" envelope.
func parseNaver(attrs map[string]any) (domain.CanonicalIdentity, error) {
	response, ok := attrs["response"].(map[string]any)
	if !ok {
		return domain.CanonicalIdentity{}, errors.New("federation: naver profile missing response")
	}

	id := stringAttr(response, "id")
	if id == "" {
		return domain.CanonicalIdentity{}, errors.New("federation: naver profile missing id")
	}

	return domain.CanonicalIdentity{
		Provider:   ProviderNaver,
		ProviderID: id,
		Email:      stringAttr(response, "email"),
		Name:       stringAttr(response, "name"),
	}, nil
}

// stringAttr reads a string-ish attribute. Kakao sends its id as a JSON
// number, which decodes to float64, so numbers are rendered back to their
// integer form.
func stringAttr(attrs map[string]any, key string) string {
	switch v := attrs[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
