// Package version provides version information for the oracle-rounds binaries.
package version

// Version is the current version of oracle-rounds.
const Version = "0.3.0"

// AgentString returns the agent string reported by the service and tools.
// Format: oracle-rounds/v{version}
func AgentString() string {
	return "oracle-rounds/v" + Version
}
