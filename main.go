// Package main is the entry point for the jumble CLI.
package main

import "jumble.dev/pkg/jumble/cmd"

func main() {
	cmd.Execute()
}
