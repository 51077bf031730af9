package main

import "github.com/grove-app/grove/internal/cli"

func main() {
	cli.Execute()
}
