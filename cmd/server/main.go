package main

import (
	"github.com/chartvoice/backend/internal/bootstrap"
)

func main() {
	bootstrap.Run()
}
