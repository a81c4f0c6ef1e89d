package main

import "log"

func main() {
	// Remove default timestamp since the logger adds its own.
	log.SetFlags(0)
	Execute()
}
