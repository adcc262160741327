package main

import "pagesdeck/internal/cli"

func main() {
	cli.Execute()
}
