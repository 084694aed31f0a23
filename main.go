package main

import "tubemind/cmd"

func main() {
	cmd.Execute()
}
