package main

import "github.com/theirongolddev/budgetchat/cmd"

func main() {
	cmd.Execute()
}
