package main

import "github.com/rmedeiros-eng/scse/cmd"

func main() {
	cmd.Execute()
}
