package main

import "github.com/wakamono/shokuhi/cmd"

func main() {
	cmd.Execute()
}
