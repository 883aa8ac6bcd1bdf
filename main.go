package main

import "github.com/lepinkainen/bookscan/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
