// Package config handles loading and validating melsecmon configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (MELSECMON_*)
//   - Validation of required fields
//   - Default value handling
//
// The defaults describe a local setup: a broker on localhost, the protocol
// mock listening on 0.0.0.0 (TCP 5000, UDP 5001), a 30-word monitor block
// polled every 500ms when push updates are unavailable, and the terminal UI
// with logs written to a file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Monitor.DefaultTarget)
package config
