package main

import "github.com/Tiliavir/tasktime/cmd"

func main() {
	cmd.Execute()
}
