package main

import "github.com/XwcdX/MANPRO-SKRIPSI-sub000/cmd"

func main() {
	cmd.Execute()
}
