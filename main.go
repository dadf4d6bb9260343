package main

import "github.com/nanont/scroblog/cmd"

func main() {
	cmd.Execute()
}
