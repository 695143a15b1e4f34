package main

import "github.com/frahmantamala/zhar/cmd"

func main() {
	cmd.Execute()
}
