// Package config loads the refinery service configuration from YAML.
//
// Every section has usable defaults, so a config file only needs the fields
// it changes:
//
//	server:
//	  addr: ":8080"
//	  fan_out: 4
//	cache:
//	  path: /var/lib/refinery/cache
//	  ttl: 24h
//	vision:
//	  enabled: true
//	  host: http://localhost:11434/v1
//	  model: llava
//
// Durations accept Go duration strings such as "30s" or "24h". Command line
// flags and environment variables are applied on top of the loaded file by
// the refinery binary.
package config
