package main

import "github.com/vietddude/scriptforge/internal/cli"

func main() {
	cli.Execute()
}
