package main

import "mdindex/internal/cli"

func main() {
	cli.Execute()
}
