package main

import "github.com/KaramelBytes/metaclean-cli/cmd"

func main() {
	cmd.Execute()
}
