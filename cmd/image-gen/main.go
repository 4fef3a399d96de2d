package main

import "github.com/wolfmcnally/image-gen/cmd/image-gen/cli"

func main() {
	cli.Execute()
}
