// Package auth implements identity and authentication for the console.
//
// Identities authenticate against exactly one authority: the local Argon2id
// credential store or the directory. The orchestrator in this package decides
// which authority governs a login, provisions directory identities on first
// login or via batch import, keeps group membership reconciled between the
// local store and the directory, and issues the HMAC signed session tokens
// consumed by the web layer. Authorization is a pure allow-union over the
// permission maps of the groups an identity belongs to.
package auth
