package main

import "github.com/theirongolddev/drawdown/cmd"

func main() {
	cmd.Execute()
}
