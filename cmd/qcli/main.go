package main

import "github.com/fyerfyer/tsqueue/cmd/qcli/cmd"

func main() {
	cmd.Execute()
}
