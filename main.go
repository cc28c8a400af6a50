package main

import root "github.com/chuhlomin/diff/cmd"

func main() {
	root.Execute()
}
