package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/gatepass/internal/app"
)

const shutdownGrace = 10 * time.Second

func main() {
	gate := app.New()
	<-gate.Start()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	gate.Stop(ctx)
}
