// Package config provides configuration management for erpsweep.
//
// Configuration comes from a YAML file with environment variable overrides.
// Defaults are applied first, the file is decoded on top, ERPSWEEP_*
// variables override both, and the result is validated as a whole:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("erpsweep.yaml")
//
// # Environment Variable Overrides
//
// Variables follow the naming convention ERPSWEEP_SECTION_FIELD:
//
//   - ERPSWEEP_DATABASE_PASSWORD overrides database.password
//   - ERPSWEEP_RETENTION_START_DATE overrides retention.start_date
//   - ERPSWEEP_RUN_DRY_RUN overrides run.dry_run
//
// Passing an empty path configures everything from the environment.
//
// # Validation
//
// Validation collects every problem before failing:
//
//	configuration validation failed: 2 errors:
//	  - database.host: field is required
//	  - retention.start_date: invalid date "2024-01-01": expected YYYYMMDD
//
// # Example Configuration
//
//	database:
//	  host: "erp-sql01"
//	  name: "erp_main"
//	  user: "cleanup"
//
//	retention:
//	  start_date: "20240101"
//
//	run:
//	  dry_run: false
//	  on_error: "abort"
//
// # Reloading
//
// The schedule command can watch the file with a Watcher; a reloaded file
// replaces the global configuration only when it validates.
package config
