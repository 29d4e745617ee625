package main

import "github.com/aaronromeo/mailtrim/internal/cli"

func main() {
	cli.Execute()
}
