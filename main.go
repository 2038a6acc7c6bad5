package main

import "github.com/kpbenz/hc12rx/cmd"

func main() {
	cmd.Execute()
}
