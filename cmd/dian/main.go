// Package main provides the dian command line tool.
//
// Usage:
//
//	dian search <CUFE>
//	dian search --visible --driver playwright <CUFE>
//	dian version
//
// The search outcome is printed to stdout as one JSON line; logs go to stderr.
package main

func main() {
	Execute()
}
