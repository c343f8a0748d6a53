package main

import "blackout-stats/cli"

func main() {
	cli.Execute()
}
