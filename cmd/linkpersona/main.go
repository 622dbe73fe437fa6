package main

import "github.com/subosito/gotenv"

func main() {
	_ = gotenv.Load()
	Execute()
}
