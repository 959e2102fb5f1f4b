// Package credential supplies the values the bkper client attaches to each
// API call.
//
// A Provider produces a token on demand. Static keys, environment lookups,
// arbitrary functions and OAuth2 token sources all satisfy the same
// interface, so the request executor never knows which strategy is in use:
//
//	creds := credential.Set{
//	    APIKey: credential.FromEnv("BKPER_API_KEY"),
//	    OAuth:  credential.NewRefreshToken(credential.RefreshConfig{
//	        ClientID:     id,
//	        ClientSecret: secret,
//	        TokenURL:     "https://oauth2.googleapis.com/token",
//	        RefreshToken: rt,
//	    }),
//	}
//
// An empty token means "no credential"; the call proceeds without it.
// A provider error surfaces as *ResolutionError and no request is sent.
package credential
