// Package accounts implements the account lifecycle and profile backend:
// registration, email-confirmed activation, bearer-token login/logout, and
// owner-scoped profile maintenance.
//
// Account lifecycle:
//   - Accounts are created inactive together with an empty Profile in one
//     transaction. A confirmation link containing a signed, time-bound token
//     is mailed to the registrant; following it flips the account active.
//   - The confirmation token is keyed to the account's mutable state
//     (password hash and active flag), so activating the account invalidates
//     every previously issued token for it.
//
// Authentication:
//   - Bearer tokens are opaque database-backed keys with get-or-create
//     semantics: repeated logins return the same key until a logout deletes
//     it. Login requires a confirmed (active) account.
//
// Collaborators (persistence, mail delivery, avatar storage) sit behind
// narrow interfaces so transports and stores can be swapped in cmd wiring.
package accounts
