// Package secrets resolves ${secret:name} references in configuration
// values.
//
// Database credentials can be kept out of the configuration file:
//
//	database:
//	  user: sweeper
//	  password: ${secret:db-password}
//
// Each reference is looked up in the configured providers in order. The
// file provider reads <dir>/db-password, the environment provider reads
// ERPSWEEP_SECRET_DB_PASSWORD.
package secrets
