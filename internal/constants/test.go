package constants

import "time"

// Test Constants
//
// IMPORTANT: These constants are for testing only. DO NOT use in production code.

// Integration Test Timeout Constants
const (
	// TestEventTimeout bounds waiting for an asynchronous callback in tests
	TestEventTimeout = 2 * time.Second

	// TestServerStartupTimeout bounds waiting for a listener to accept connections
	TestServerStartupTimeout = 5 * time.Second
)

// Test Protocol Constants
const (
	// TestVersion is the protocol version used by test fixtures
	TestVersion = 83

	// TestPatchLocation is the patch location string used by test fixtures
	TestPatchLocation = "1"

	// TestLocaleID is the locale byte used by test fixtures
	TestLocaleID = 8
)
