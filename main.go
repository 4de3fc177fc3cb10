package main

import "github.com/stgquant/stgtrade/internal/cli"

func main() {
	cli.Run()
}
