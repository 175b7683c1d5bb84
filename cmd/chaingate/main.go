package main

import "github.com/chaingate/chaingate/cmd/chaingate/cmd"

func main() {
	cmd.Execute()
}
