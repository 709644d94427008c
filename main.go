package main

import "github.com/maxvaer/proxycheck/cmd"

func main() {
	cmd.Execute()
}
