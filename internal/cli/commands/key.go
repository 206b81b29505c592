package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/keycore/internal/cli/keystore"
	"github.com/weisyn/keycore/internal/cli/output"
	"github.com/weisyn/keycore/pkg/types"
	"github.com/weisyn/keycore/pkg/utils/memzero"
)

// keyFlags key 子命令共用标志
type keyFlags struct {
	scheme         string
	keystorePath   string
	passwordFile   string
	privateKeyFile string
	reveal         bool
}

func (c *CLI) keyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "私钥管理",
		Long:  "生成、导入私钥，由公钥计算地址",
	}
	cmd.AddCommand(c.keyGenerateCommand(), c.keyImportCommand(), c.keyAddressCommand())
	return cmd
}

func (c *CLI) keyGenerateCommand() *cobra.Command {
	var f keyFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "生成随机私钥",
		Long: `从系统随机源生成 secp256k1 私钥。

私钥默认不输出；用 --keystore 保存为口令加密文件，
或用 --reveal 明文输出（仅用于离线环境）。

示例：
  keycore key generate --keystore ./alice.json
  keycore key generate --scheme bitcoin --reveal`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.services.Keys.Generate()
			if err != nil {
				return err
			}
			defer key.Destroy()
			return c.finishKey(key, f)
		},
	}
	cmd.Flags().StringVar(&f.scheme, "scheme", "", "地址方案: ethereum|bitcoin (默认取配置)")
	cmd.Flags().StringVar(&f.keystorePath, "keystore", "", "保存为口令加密的 keystore 文件")
	cmd.Flags().StringVar(&f.passwordFile, "password-file", "", "从文件读取 keystore 口令")
	cmd.Flags().BoolVar(&f.reveal, "reveal", false, "明文输出私钥")
	return cmd
}

func (c *CLI) keyImportCommand() *cobra.Command {
	var f keyFlags
	cmd := &cobra.Command{
		Use:   "import",
		Short: "导入已有私钥",
		Long: `导入 32 字节私钥（按 --encoding 解码），输出公钥与地址。

私钥从 --private-key-file 读取，未指定时无回显提示输入。

示例：
  keycore key import --private-key-file ./raw.hex --keystore ./bob.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := c.readSecret(f.privateKeyFile, "私钥")
			if err != nil {
				return err
			}
			raw, err := c.decodeSecret(text)
			if err != nil {
				return err
			}
			key, err := c.services.Keys.Import(raw)
			memzero.Wipe(raw)
			if err != nil {
				return err
			}
			defer key.Destroy()
			return c.finishKey(key, f)
		},
	}
	cmd.Flags().StringVar(&f.scheme, "scheme", "", "地址方案: ethereum|bitcoin (默认取配置)")
	cmd.Flags().StringVar(&f.privateKeyFile, "private-key-file", "", "从文件读取私钥")
	cmd.Flags().StringVar(&f.keystorePath, "keystore", "", "保存为口令加密的 keystore 文件")
	cmd.Flags().StringVar(&f.passwordFile, "password-file", "", "从文件读取 keystore 口令")
	return cmd
}

func (c *CLI) keyAddressCommand() *cobra.Command {
	var scheme string
	cmd := &cobra.Command{
		Use:   "address <public-key>",
		Short: "由公钥计算地址",
		Long: `接受 33 字节压缩或 65 字节未压缩公钥（按 --encoding 解码）。

示例：
  keycore key address 0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := c.encoding.decode(args[0])
			if err != nil {
				return err
			}
			s, err := c.addressScheme(scheme)
			if err != nil {
				return err
			}
			addr, err := c.services.Addresses.PublicKeyToAddress(pub, s)
			if err != nil {
				return err
			}
			compressed, err := c.services.Keys.CompressPublicKey(pub)
			if err != nil {
				return err
			}
			uncompressed, err := c.services.Keys.DecompressPublicKey(pub)
			if err != nil {
				return err
			}
			return c.formatter.Print(output.Record{
				{Key: "address", Value: addr.String()},
				{Key: "scheme", Value: s.String()},
				{Key: "public_key", Value: c.encoding.encode(compressed)},
				{Key: "public_key_uncompressed", Value: c.encoding.encode(uncompressed)},
			})
		},
	}
	cmd.Flags().StringVar(&scheme, "scheme", "", "地址方案: ethereum|bitcoin (默认取配置)")
	return cmd
}

// addressScheme 解析方案名，为空时取配置
func (c *CLI) addressScheme(name string) (types.AddressScheme, error) {
	if name == "" {
		return c.services.Options.AddressScheme, nil
	}
	return types.ParseAddressScheme(name)
}

// describeKey 计算私钥对应的公钥与地址
func (c *CLI) describeKey(key *types.SecurePrivateKey, scheme types.AddressScheme) (output.Record, types.Address, error) {
	addr, err := c.services.Keys.DeriveAddressWithScheme(key, scheme)
	if err != nil {
		return nil, types.Address{}, err
	}
	pub, err := c.services.Keys.DerivePublicKey(key)
	if err != nil {
		return nil, types.Address{}, err
	}
	return output.Record{
		{Key: "address", Value: addr.String()},
		{Key: "scheme", Value: scheme.String()},
		{Key: "public_key", Value: c.encoding.encode(pub)},
		{Key: "key_id", Value: key.ID()},
	}, addr, nil
}

// finishKey 输出公钥信息，按标志保存 keystore 或明文输出私钥
func (c *CLI) finishKey(key *types.SecurePrivateKey, f keyFlags) error {
	scheme, err := c.addressScheme(f.scheme)
	if err != nil {
		return err
	}
	record, addr, err := c.describeKey(key, scheme)
	if err != nil {
		return err
	}
	extra, err := c.keyExtras(key, addr, f)
	if err != nil {
		return err
	}
	return c.formatter.Print(append(record, extra...))
}

// keyExtras 处理 --keystore 与 --reveal，返回追加的输出字段
func (c *CLI) keyExtras(key *types.SecurePrivateKey, addr types.Address, f keyFlags) (output.Record, error) {
	var record output.Record
	if f.keystorePath != "" {
		password, err := c.readNewPassword(f.passwordFile)
		if err != nil {
			return nil, err
		}
		store := keystore.New(c.services.Encryption, c.services.Options.DefaultAEAD)
		file, err := store.Save(f.keystorePath, password, key, addr)
		memzero.Wipe(password)
		if err != nil {
			return nil, err
		}
		record = append(record,
			output.Field{Key: "keystore", Value: f.keystorePath},
			output.Field{Key: "keystore_id", Value: file.ID},
		)
		c.formatter.PrintSuccess(fmt.Sprintf("已保存 keystore: %s", f.keystorePath))
	}

	if f.reveal {
		raw, err := key.Export()
		if err != nil {
			return nil, err
		}
		record = append(record, output.Field{Key: "private_key", Value: c.encoding.encode(raw)})
		memzero.Wipe(raw)
		c.formatter.PrintWarning("私钥已明文输出，请勿在联网或共享环境中使用 --reveal")
	}
	return record, nil
}

// loadSigningKey 从 keystore 或私钥文件加载私钥，调用方负责 Destroy
func (c *CLI) loadSigningKey(keystorePath, passwordFile, privateKeyFile string) (*types.SecurePrivateKey, error) {
	switch {
	case keystorePath != "":
		password, err := c.readPassword(passwordFile, "keystore 口令")
		if err != nil {
			return nil, err
		}
		defer memzero.Wipe(password)
		store := keystore.New(c.services.Encryption, c.services.Options.DefaultAEAD)
		key, _, err := store.Load(keystorePath, password)
		return key, err
	case privateKeyFile != "":
		text, err := readSecretFile(privateKeyFile)
		if err != nil {
			return nil, err
		}
		raw, err := c.decodeSecret(text)
		if err != nil {
			return nil, err
		}
		defer memzero.Wipe(raw)
		return c.services.Keys.Import(raw)
	}
	return nil, fmt.Errorf("需要 --keystore 或 --private-key-file")
}
