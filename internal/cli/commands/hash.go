package commands

import (
	"github.com/spf13/cobra"

	"github.com/weisyn/keycore/internal/cli/output"
	"github.com/weisyn/keycore/pkg/types"
)

func (c *CLI) hashCommand() *cobra.Command {
	var inFile string
	cmd := &cobra.Command{
		Use:   "hash <sha256|sha512|keccak256|keccak512> [data]",
		Short: "计算摘要",
		Long: `计算数据的摘要。数据取自参数，或 --in 文件（"-" 为标准输入）。

示例：
  keycore hash keccak256 "hello"
  keycore hash sha256 --in ./file.bin -o text`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			alg, err := types.ParseHashAlgorithm(args[0])
			if err != nil {
				return err
			}
			data, err := c.readData(args[1:], inFile)
			if err != nil {
				return err
			}
			digest, err := c.services.Hashes.Hash(alg, data)
			if err != nil {
				return err
			}
			return c.formatter.Print(output.Record{
				{Key: "digest", Value: c.encoding.encode(digest)},
				{Key: "algorithm", Value: alg.String()},
			})
		},
	}
	cmd.Flags().StringVar(&inFile, "in", "", `输入文件，"-" 为标准输入`)
	return cmd
}
