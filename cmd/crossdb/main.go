package main

import "github.com/Abhijeetjrock/db-analyzer1/internal/cmd"

func main() {
	cmd.Execute()
}
