// Package users implements a user-account backend: registration, lookup,
// profile updates, soft deletion, and password-based authentication issuing
// signed bearer tokens.
//
// The package is organized around a small set of collaborators: a credential
// store (bcrypt), a token service (HS256 JWT), a pure authorization policy,
// an account lifecycle manager over a bun repository, and an authenticator
// that ties credentials and tokens together. An optional fiber controller
// exposes the operations over HTTP.
package users
