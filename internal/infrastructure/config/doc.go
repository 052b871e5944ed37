// Package config handles loading and validating irrigation service configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Reading an optional .env file beside the YAML file
//   - Overriding with IRRIGATION_* environment variables
//   - Validation of required fields (all errors reported at once)
//
// Security Considerations:
//   - The cloud bearer token and broker credentials should come from the
//     environment or a .env file, not the committed YAML
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/irrigation.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Cloud.BaseURL)
package config
