package main

import "github.com/tkarvine/bibliofile/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
