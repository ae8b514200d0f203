// Package config provides configuration management for takedown.
//
// Configuration is read from a YAML file through the Provider interface.
// Values from the file are laid over Default(), so a file only needs the
// keys it changes. Command-line flags are applied on top by cmd/takedown.
//
// # Configuration Structure
//
//	input:
//	  path: response.json             # notice document
//	output:
//	  dir: ./out                      # report directory
//	resolver:
//	  endpoint: https://dns.google/resolve
//	  format: json                    # json | wire (RFC 8484)
//	  record_type: A
//	  timeout: 5s                     # per lookup, single attempt
//	  concurrency: 64                 # lookups in flight
//	metrics:
//	  textfile: ""                    # Prometheus textfile, empty disables
//
// # Basic Usage
//
//	cfg, err := config.New().Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Load from a specific path and fail if it is missing:
//
//	cfg, err := config.NewWithPath(filesys.OS(), "/etc/takedown.yaml", config.Required()).Load()
//
// # Validation
//
//   - input path and output directory must not be empty
//   - resolver concurrency must be between 1 and MaxConcurrency
//   - resolver timeout must be positive and at most MaxTimeout
//   - resolver endpoint must be an absolute http or https URL
//   - resolver format must be json or wire
//   - record type must be known to github.com/miekg/dns
//
// # Error Handling
//
//   - ErrInvalidConfig: validation failed
//   - ErrNoConfig: the file does not exist (defaults are used unless Required)
package config
