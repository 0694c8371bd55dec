package main

import (
	"litterwatch/cmd/litterwatch/cmd"
)

func main() {
	cmd.Execute()
}
