package main

import "taskmarket_backend/internal/app"

func main() {
	app.Run()
}
