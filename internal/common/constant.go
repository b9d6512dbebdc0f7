// Package common contains shared constants and sentinel errors used across
// qubicboard components.
package common

// AccessTokenHeaderName is the HTTP header used to carry the access token
// on inbound API requests.
const AccessTokenHeaderName = "Authorization"

// AnonymousID is the sentinel identity used when no email or username is
// known. State for this identity is never persisted or loaded.
const AnonymousID = "anonymous"
