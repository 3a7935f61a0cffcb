package main

import "github.com/lemo-app/lemo-dashboard/cmd"

func main() {
	cmd.Execute()
}
