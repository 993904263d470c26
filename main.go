package main

import "github.com/encodeous/routesim/cmd"

func main() {
	cmd.Execute()
}
