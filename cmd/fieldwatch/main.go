package main

import "github.com/smallbiznis/fieldwatch/cmd/fieldwatch/cmd"

func main() {
	cmd.Execute()
}
