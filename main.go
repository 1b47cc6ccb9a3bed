package main

import "github.com/kozaktomas/faceswap/cmd"

func main() {
	cmd.Execute()
}
