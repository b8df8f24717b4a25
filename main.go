package main

import (
	"github.com/gogf/gf/v2/os/gctx"

	_ "github.com/gogf/gf/contrib/drivers/mysql/v2"
	_ "github.com/gogf/gf/contrib/drivers/pgsql/v2"
	"github.com/knowbase-ai/knowbase/internal/cmd"
)

func main() {
	cmd.Main.Run(gctx.GetInitCtx())
}
