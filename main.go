package main

import "sigpatch/cmd"

func main() {
	cmd.Execute()
}
