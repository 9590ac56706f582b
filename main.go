package main

import "github.com/openaleph/openaleph-search/cmd"

func main() {
	cmd.Execute()
}
