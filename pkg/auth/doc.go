// Package auth persists CLI credentials for bashgate servers.
//
// Tokens obtained through `bashgate auth login` are stored one file per
// server under ~/.config/bashgate/tokens, keyed by a hash of the server
// URL. Files are written with 0600 permissions and token values are
// never logged.
package auth
