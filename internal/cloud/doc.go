// Package cloud implements the client for the Nightbell device-cloud
// REST API.
//
// A Session owns the HTTP connection, the authentication state, and
// the registry of known devices. All requests against the primary API
// host carry the bearer token plus the per-installation app id and
// per-session client id headers; requests to other hosts (pre-signed
// media URLs) go out unauthenticated.
//
// # Authentication
//
// The access token lives in the durable cache record. When a request
// is issued without a token, the session logs in implicitly first.
// A 401 surfaces immediately as ErrAuthentication. Any other failure
// triggers exactly one re-login followed by one replay of the same
// request; the retry state is an explicit enum, so a second re-login
// cannot happen by construction.
//
// # Degraded results
//
// The cloud expires pre-signed URLs and drops sub-resources that are
// no longer backed by storage. A 403 or 404 on a fetch is therefore
// "not currently available", not an error: the request returns a nil
// payload and callers keep whatever state they already have.
//
// # Access control
//
// Each device carries an access-control level granted by the server
// (owner > device:basic > device:read). The level maps to a
// capability set that gates which sub-resources are fetched or
// mutated; read-only shares never see device info or settings.
package cloud
