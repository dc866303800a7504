package main

import (
	"home-energy-dashboard/internal/cli"
)

func main() {
	cli.Execute()
}
