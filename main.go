package main

import "github.com/locvowork/pawsheets/cmd"

func main() {
	cmd.Execute()
}
