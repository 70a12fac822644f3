package main

import "github.com/market-muscles-llc/pulse-kronos/cmd"

func main() {
	cmd.Execute()
}
