// Package krypto provides the small set of cryptographic helpers the
// OAuth flow needs: unguessable state tokens and authenticated
// encryption of cached tokens.
//
//	state, err := krypto.GenerateSecureToken(32)
//
//	key, _ := krypto.GenerateAESKey(32)
//	sealer, err := krypto.NewAESGCMSealerFromString(key)
//	sealed, err := sealer.Seal([]byte(`{"access_token":"..."}`))
package krypto
