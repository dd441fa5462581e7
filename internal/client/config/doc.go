// Package config loads runtime configuration for the Spotlight CLI.
//
// Sources, later ones overriding earlier ones:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. SPOTLIGHT_* environment variables; a .env file in the working
//     directory supplies values not set in the process environment.
//  3. A JSON file selected with -c or -config.
//  4. Flags: -a API base URL, -t timeout seconds, -d database path,
//     -l page limit.
//
// Example JSON:
//
//	{
//	  "api_base_url": "https://spotlight.example.com/api/v1",
//	  "request_timeout": "15s",
//	  "search_debounce": "300ms",
//	  "upload": {"provider": "s3", "s3_bucket": "avatars", "s3_region": "eu-central-1"}
//	}
package config
