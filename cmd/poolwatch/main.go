package main

import "github.com/charliek/poolwatch/internal/cli"

func main() {
	cli.Execute()
}
