// keycore 钱包密钥核心命令行
package main

import (
	"os"

	"github.com/weisyn/keycore/internal/cli/commands"
)

func main() {
	os.Exit(commands.Execute())
}
