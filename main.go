package main

import "github.com/gkhutsishvili/skitrack/cmd"

func main() {
	cmd.Execute()
}
