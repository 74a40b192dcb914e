// Package handler provides the HTTP handlers of the run command.
//
// Every handler draws on a single Session; tokens are rendered as text
// only here, at the edge.
package handler
