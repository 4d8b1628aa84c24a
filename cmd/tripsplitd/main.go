package main

import "github.com/tripsplit/tripsplitd/internal/cli"

func main() {
	cli.Execute()
}
