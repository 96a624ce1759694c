// Package config loads runtime configuration for the gophchat CLI.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags.
//
// Supported flags
//
//	-a string   base URL of the gophchat HTTP API
//	-i int      online status check interval (seconds)
//	-f string   path of the local SQLite cache
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "online_check_interval": "3s",
//	  "cache_path": "gophchat.db"
//	}
package config
