package main

import (
	"context"
	"tildes-client/cmd/tildes-cli/commands"
	"tildes-client/lib/util/serviceutil"
)

func main() {
	ctx, cancel := serviceutil.SignalContext(context.Background())
	defer cancel()
	commands.ExecuteContext(ctx)
}
