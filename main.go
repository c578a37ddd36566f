package main

import "github.com/Alijeyrad/consulto_backend/cmd"

func main() {
	cmd.Execute()
}
