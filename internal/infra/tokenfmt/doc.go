// Package tokenfmt renders raw tokens as text at the outer edges of the
// program (CLI output and HTTP responses). The generator itself only ever
// deals in bytes.
package tokenfmt
