// Package cliutil renders tables and JSON for the command-line tools.
package cliutil
