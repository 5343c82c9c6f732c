package main

import "go.infratographer.com/loadbalancer-details/cmd"

func main() {
	cmd.Execute()
}
