package main

import (
	"kmpkg/cmd" // Import the cmd package which contains the CLI commands and execution logic
)

// main is the program entry point.
// It delegates to cmd.Execute() which handles command line argument parsing and execution.
//
// kmpkg is a packaging tool for Keyboard Maestro action bundles that:
//   - Validates an action bundle directory: the "Keyboard Maestro Action.plist"
//     manifest, the 64x64 PNG icon, and the script file the manifest references
//   - Converts binary manifests to XML in place and lints them with plutil
//   - Packages a valid bundle into a distributable ZIP, excluding .DS_Store files
//   - Installs packaged bundles (from a local archive or a URL) into the
//     Keyboard Maestro actions directory, and uninstalls them again
//   - Maintains a JSON state file tracking which bundles it has installed
//
// Validation is fail-fast: checks run in a fixed order and the first failure
// aborts the run with a non-zero exit status. Inspection of plists and images
// is delegated to the native macOS tools (plutil, sips) rather than
// reimplemented; the ZIP packaging step likewise shells out to zip(1).
func main() {
	cmd.Execute()
}
