package main

import "github.com/jwulff/meetnotes/internal/cli"

func main() {
	cli.Execute()
}
