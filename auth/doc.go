// Package auth provides the signed-in user and access token consumed by the
// storage, catalog and transcription clients.
//
// Session decodes the backend's JWT access token (package auth/jwt) and
// reports the user from its "sub" claim until the token expires:
//
//	session, err := auth.NewSession(auth.Config{TokenFile: "~/.config/audiopen/token"})
//	user, ok := session.CurrentUser()
//
// Static is a fixed identity for local-only setups and tests.
package auth
