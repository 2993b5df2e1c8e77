// Package repositories implements SQLite persistence for mergemix.
//
// The only durable state is the PKCE code verifier, which has to survive the gap between sending the user to the
// authorize page and receiving the callback. [KVRepository] stores it, together with the OAuth state, in the
// kv_store table. The auth flow deletes both once the code has been exchanged.
package repositories
