// Package identity implements the account lifecycle for email/password
// deployments: signup with deferred activation, credential login, single-use
// activation and password-reset keys, and owner-only profile updates.
//
// Lifecycle:
//   - SignupHandler creates an unactivated User carrying a fresh activation
//     key; the record is committed before any email is attempted, so a failed
//     send can always be recovered through ResendConfirmationHandler (which
//     reuses the existing key, never minting a new one).
//   - ActivateAccountHandler consumes the key in a single compare-and-set
//     update; a consumed key can never activate a second time.
//   - Password resets follow the same shape: InitializePasswordResetHandler
//     issues a key (superseding any outstanding one) and
//     FinalizePasswordResetHandler redeems it atomically, so concurrent
//     redemption attempts produce exactly one success.
//
// Sessions:
//   - Auther verifies credentials through an IdentityProvider and issues a
//     signed JWT; SessionObject is the decoded, request-scoped view of the
//     authenticated principal. The HTTP adapter (RouteAuthenticator) moves
//     the token in and out of a cookie; nothing session-related is persisted.
//
// Collaborators:
//   - Mailer and CaptchaVerifier are interface boundaries. Both are invoked
//     only after directory state has been committed (Mailer) or before any
//     write happens (CaptchaVerifier); their failures never roll back state.
package identity
