/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package config loads configuration of pdfgate components from files, readers and environment variables.
//
// Every component owns a structure implementing Config. Loader first asks each of them to register
// default values in the DataProvider and then to read and validate the resulting values.
// A component that implements KeyPrefixProvider sees only the keys under its prefix
// (e.g. "server", "admission", "log").
package config

// Config is a common interface for configuration objects that may be used by Loader.
type Config interface {
	SetProviderDefaults(dp DataProvider)
	Set(dp DataProvider) error
}

// KeyPrefixProvider is an interface for providing key prefix that will be used for configuration parameters.
type KeyPrefixProvider interface {
	KeyPrefix() string
}
