package main

import "github.com/KaramelBytes/autoanalyst-cli/cmd"

func main() {
	cmd.Execute()
}
