// Package google provides the OAuth credential provider used by every
// Google API call made by coverletter.
//
// A Provider returns a valid credential for the Drive and Docs scopes. It
// loads the persisted credential, refreshes it when expired, and falls back
// to an interactive loopback login in the system browser when neither works.
// Successful refreshes and logins are written back to the token file.
package google
