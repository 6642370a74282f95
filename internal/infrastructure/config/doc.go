// Package config loads and validates the ulink sender configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with ULINK_* environment variables
//   - Validation of every section in one pass
//
// Security Considerations:
//   - Broker passwords, InfluxDB tokens and the JWT secret should come from
//     the environment rather than the file
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Transmitter.Interval)
package config
