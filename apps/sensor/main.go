package main

import (
	"github.com/smallbiznis/fieldwatch/internal/bootstrap"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(bootstrap.Sensor())
	app.Run()
}
