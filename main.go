package main

import "treediff/cmd"

func main() {
	cmd.Execute()
}
