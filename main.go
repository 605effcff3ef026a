package main

import "thunderdash/cmd"

func main() {
	cmd.Execute()
}
