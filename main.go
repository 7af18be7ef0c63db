package main

import "github.com/dyike/PortfolioGo/internal/cli"

func main() {
	cli.Run()
}
