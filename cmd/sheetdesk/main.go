package main

import "github.com/sheetdesk/sheetdesk/internal/cli"

func main() {
	cli.Execute()
}
