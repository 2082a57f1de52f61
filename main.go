package main

import "sisterhood-backend/cli"

func main() {
	cli.Execute()
}
