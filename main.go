package main

import "github.com/Jeyveen7/40-avocados/cmd"

func main() {
	cmd.Execute()
}
