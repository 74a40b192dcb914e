// Package output renders command results for the cryptogen CLI.
//
//   - formatter.go: Formatter interface, format parsing and Print
//   - table.go: aligned tables built from structs, slices and maps
//   - json.go, yaml.go: machine-readable output
//   - progress.go: a counting progress bar for the bench command
//
// Tables are the default; json and yaml are meant for scripting.
package output
