// Package cli parses the tyconf command line, validates user input and maps
// failures to exit codes. It translates flags into an app.Config.
package cli
