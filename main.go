package main

import "github.com/marketdash/marketdash/cmd"

func main() {
	cmd.Execute()
}
