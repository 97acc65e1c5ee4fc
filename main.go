package main

import "github.com/suderio/turnflow/cmd"

func main() {
	cmd.Execute()
}
