package main

import (
	"context"

	"cardwatch-backend/cmd/cardwatch-cli/commands"
	"cardwatch-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
