package main

import "github.com/docdex-io/docdex/internal/cli"

func main() {
	cli.Execute()
}
