// Package main is the entry point for the migas command.
package main

import "github.com/jamesprial/migas-go/internal/cli"

func main() {
	cli.Execute()
}
