package main

import "schooladmin/cmd/cli/command"

func main() {
	command.Execute()
}
