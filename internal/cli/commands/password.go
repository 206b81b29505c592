package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/weisyn/keycore/internal/cli/output"
	"github.com/weisyn/keycore/pkg/types"
	"github.com/weisyn/keycore/pkg/utils/memzero"
)

// ErrPasswordMismatch 口令与哈希不匹配
var ErrPasswordMismatch = errors.New("口令不匹配")

func (c *CLI) passwordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "口令哈希",
		Long:  "生成与校验 PHC 格式口令哈希（Argon2id / PBKDF2）",
	}
	cmd.AddCommand(c.passwordHashCommand(), c.passwordVerifyCommand(), c.passwordNeedsRehashCommand())
	return cmd
}

// passwordAlgorithm 解析算法名，为空时使用推荐算法
func passwordAlgorithm(name string) (types.PasswordAlgorithm, error) {
	if name == "" {
		return types.PreferredPasswordAlgorithm, nil
	}
	return types.ParsePasswordAlgorithm(name)
}

func (c *CLI) passwordHashCommand() *cobra.Command {
	var alg, passwordFile string
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "生成口令哈希",
		Long: `按配置中的参数生成口令哈希，盐取自系统随机源。

示例：
  keycore password hash
  keycore password hash --alg pbkdf2 --password-file ./pw`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			algorithm, err := passwordAlgorithm(alg)
			if err != nil {
				return err
			}
			password, err := c.readNewPassword(passwordFile)
			if err != nil {
				return err
			}
			defer memzero.Wipe(password)

			hash, err := c.services.Passwords.Hash(password, algorithm, c.services.Options.Password)
			if err != nil {
				return err
			}
			return c.formatter.Print(output.Record{
				{Key: "hash", Value: string(hash)},
				{Key: "algorithm", Value: algorithm.String()},
			})
		},
	}
	cmd.Flags().StringVar(&alg, "alg", "", "算法: argon2id|pbkdf2 (默认 argon2id)")
	cmd.Flags().StringVar(&passwordFile, "password-file", "", "从文件读取口令")
	return cmd
}

func (c *CLI) passwordVerifyCommand() *cobra.Command {
	var passwordFile string
	cmd := &cobra.Command{
		Use:   "verify <hash>",
		Short: "校验口令",
		Long: `校验口令与 PHC 哈希是否匹配，不匹配时以非零状态退出。

示例：
  keycore password verify '$argon2id$v=19$m=65536,t=3,p=4$...'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := c.readPassword(passwordFile, "口令")
			if err != nil {
				return err
			}
			defer memzero.Wipe(password)

			ok, err := c.services.Passwords.Verify(password, types.PasswordHash(args[0]))
			if err != nil {
				return err
			}
			if err := c.formatter.Print(output.Record{{Key: "valid", Value: ok}}); err != nil {
				return err
			}
			if !ok {
				return ErrPasswordMismatch
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&passwordFile, "password-file", "", "从文件读取口令")
	return cmd
}

func (c *CLI) passwordNeedsRehashCommand() *cobra.Command {
	var alg string
	cmd := &cobra.Command{
		Use:   "needs-rehash <hash>",
		Short: "判断是否需要按当前参数重新哈希",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			algorithm, err := passwordAlgorithm(alg)
			if err != nil {
				return err
			}
			needs, err := c.services.Passwords.NeedsRehash(types.PasswordHash(args[0]), algorithm, c.services.Options.Password)
			if err != nil {
				return err
			}
			return c.formatter.Print(output.Record{
				{Key: "needs_rehash", Value: needs},
				{Key: "target", Value: algorithm.String()},
			})
		},
	}
	cmd.Flags().StringVar(&alg, "alg", "", "目标算法: argon2id|pbkdf2 (默认 argon2id)")
	return cmd
}
