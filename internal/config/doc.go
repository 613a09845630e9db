// Package config resolves coverletter settings from the environment.
//
// Every setting has a default and an environment variable; command-line
// flags in the cmd package override the resolved values before Validate
// is called. See DefaultConfig for the full list of variables.
package config
