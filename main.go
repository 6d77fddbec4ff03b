package main

import "github.com/papapumpkin/synapse/cmd"

func main() {
	cmd.Execute()
}
