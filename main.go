package main

import "appealbot/internal/cmd"

func main() {
	cmd.Execute()
}
