// Package main provides the entry point for the NetConsole-Admin operations
// console. It starts a web service backed by the Fiber framework that exposes
// login, token verification, password management, directory import and group
// synchronization endpoints. Identities are validated either against the local
// Argon2id password store or against an LDAP/Active Directory server,
// depending on how each identity is managed. The application uses gorm for
// data persistence.
package main
