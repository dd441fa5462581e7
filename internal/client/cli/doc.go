// Package cli provides the interactive Spotlight command-line client.
//
// It wires configuration, the local session database, the API client and
// the stores into a REPL:
//   - register / verify / resend, login / logout, forgot / reset
//   - explore the talent directory page by page, search it (incrementally
//     with a debounce when no query is given) and show single profiles
//   - edit the signed-in user's profile: skills, experiences, projects,
//     educations, links, profile fields and avatar
//
// A 401 from any authenticated call ends the local session.
package cli
