package main

import "chatauth/internal/app"

func main() {
	app.Run()
}
