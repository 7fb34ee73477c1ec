// Package app contains the checker behind the tyconf command. It loads a
// schema document, parses a configuration file against one of its types and
// reports the outcome, decoupled from flag parsing and process exit codes.
package app
