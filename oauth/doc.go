// Package oauth implements "Sign In with LinkedIn" on top of
// golang.org/x/oauth2.
//
// The LinkedInProvider supplies what is LinkedIn specific: endpoint URLs,
// default scopes, the approval_prompt parameter, token error parsing and
// the mapping of /v2/me profiles onto LinkedInResourceOwner. The Service
// wraps a provider with state handling, optional PKCE, session and token
// caching, metrics and HTTP handlers.
//
// # Quick Start
//
// Initialize the service from BEAVER_-prefixed environment variables:
//
//	// BEAVER_LINKEDIN_CLIENT_ID, BEAVER_LINKEDIN_CLIENT_SECRET,
//	// BEAVER_LINKEDIN_REDIRECT_URL
//	if err := oauth.Init(); err != nil {
//	    log.Fatal(err)
//	}
//
//	authURL, state, err := oauth.OAuth().GetAuthURL(ctx)
//
//	// on the redirect URI
//	token, err := oauth.OAuth().Exchange(ctx, code, state)
//	owner, err := oauth.OAuth().GetResourceOwner(ctx, token)
//	user := owner.(*oauth.LinkedInResourceOwner)
//	fmt.Println(user.FirstName(), user.LastName(), user.ImageURL())
//
// # Using the provider directly
//
//	p, err := oauth.NewLinkedIn(oauth.ProviderConfig{
//	    ClientID:     "id",
//	    ClientSecret: "secret",
//	    RedirectURL:  "https://example.com/callback",
//	})
//	url := p.AuthCodeURL(state, oauth.WithScopes("r_liteprofile"))
//
// Profile fields are requested as ?fields=id,firstName,... and can be
// replaced per provider with WithFields, which returns a new provider.
//
// Provider configuration can also be read from YAML or JSON with
// ParseProviderConfig; a "fields" value that is not a list of strings
// fails with ErrInvalidConfig.
//
// # Errors
//
// Token and API error bodies are returned as *IdentityProviderError,
// which matches ErrIdentityProvider with errors.Is, and ErrAccessDenied
// for 401 and 403 responses.
package oauth
