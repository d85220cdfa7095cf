// SPDX-License-Identifier: Apache-2.0

package version

// Set via -ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
)
