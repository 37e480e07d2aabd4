package main

import "github.com/scribeworks/mdforge/cmd"

func main() {
	cmd.Execute()
}
