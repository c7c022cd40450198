package main

import "github.com/pipetriage/pipetriage/internal/cli"

func main() {
	cli.Execute()
}
