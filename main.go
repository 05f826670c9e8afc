package main

import "multibagger/internal/cli"

func main() {
	cli.Execute()
}
