package main

import (
	"context"

	"vtopassist-backend/cmd/vtop-cli/commands"
	"vtopassist-backend/lib/telemetry"
	"vtopassist-backend/lib/util/serviceutil"
)

func main() {
	ctx := context.Background()
	tel, err := telemetry.SetupFromEnv(ctx, "vtop-cli")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	defer tel.Shutdown(ctx)
	telemetry.InitSlog(true)
	commands.ExecuteContext(ctx)
}
