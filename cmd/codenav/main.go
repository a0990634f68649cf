package main

import "codenav/internal/cli"

func main() {
	cli.Execute()
}
