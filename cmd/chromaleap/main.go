package main

import "github.com/bryanwahyu/chromaleap/internal/cli"

func main() {
	cli.Execute()
}
