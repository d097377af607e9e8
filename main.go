package main

import "github.com/retainly/intake/cmd"

func main() {
	cmd.Execute()
}
