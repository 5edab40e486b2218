// ABOUTME: Version constants for wasmplay binaries
// ABOUTME: Reported in logs, the dev server banner and mDNS TXT records
package version

const (
	Version      = "0.3.0"
	Product      = "wasmplay"
	Manufacturer = "Resonate"
)
