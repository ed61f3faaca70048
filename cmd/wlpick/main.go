package main

import "github.com/wlpick/wlpick/cmd/wlpick/commands"

func main() {
	commands.Execute()
}
