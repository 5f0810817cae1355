package main

import "pixpress/cmd"

func main() {
	cmd.Execute()
}
