package main

import "github.com/wxlab/datimg/cmd/datimg/cmd"

func main() {
	cmd.Execute()
}
