package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/weisyn/keycore/internal/cli/output"
	"github.com/weisyn/keycore/pkg/types"
)

// ErrSignatureInvalid 验证未通过
var ErrSignatureInvalid = errors.New("签名无效")

// digestFlags 摘要来源：--digest 直接给出，或对消息按 --hash 计算
type digestFlags struct {
	digest  string
	hashAlg string
	inFile  string
}

func (f *digestFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.digest, "digest", "", "32 字节摘要（按 --encoding 解码），给出时忽略消息")
	cmd.Flags().StringVar(&f.hashAlg, "hash", "keccak256", "消息摘要算法: keccak256|sha256")
	cmd.Flags().StringVar(&f.inFile, "in", "", `消息文件，"-" 为标准输入`)
}

// resolveDigest 得到 32 字节摘要
func (c *CLI) resolveDigest(f digestFlags, args []string) ([]byte, error) {
	if f.digest != "" {
		return c.encoding.decode(f.digest)
	}
	alg, err := types.ParseHashAlgorithm(f.hashAlg)
	if err != nil {
		return nil, err
	}
	message, err := c.readData(args, f.inFile)
	if err != nil {
		return nil, err
	}
	return c.services.Hashes.MessageDigest(alg, message)
}

func (c *CLI) signCommand() *cobra.Command {
	var (
		df             digestFlags
		keystorePath   string
		passwordFile   string
		privateKeyFile string
		scheme         string
	)
	cmd := &cobra.Command{
		Use:   "sign [message]",
		Short: "对摘要或消息签名",
		Long: `用 keystore 或私钥文件中的私钥生成 65 字节可恢复签名 r‖s‖v。

未给出 --digest 时，先按 --hash 计算消息摘要再签名。

示例：
  keycore sign --keystore ./alice.json "转账 1 ETH"
  keycore sign --private-key-file ./raw.hex --digest 0x...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digest, err := c.resolveDigest(df, args)
			if err != nil {
				return err
			}
			key, err := c.loadSigningKey(keystorePath, passwordFile, privateKeyFile)
			if err != nil {
				return err
			}
			defer key.Destroy()

			sig, err := c.services.Signatures.Sign(key, digest)
			if err != nil {
				return err
			}
			s, err := c.addressScheme(scheme)
			if err != nil {
				return err
			}
			addr, err := c.services.Keys.DeriveAddressWithScheme(key, s)
			if err != nil {
				return err
			}
			pub, err := c.services.Keys.DerivePublicKey(key)
			if err != nil {
				return err
			}
			return c.formatter.Print(output.Record{
				{Key: "signature", Value: c.encoding.encode(sig.Bytes())},
				{Key: "r", Value: c.encoding.encode(sig.R())},
				{Key: "s", Value: c.encoding.encode(sig.S())},
				{Key: "v", Value: sig.V()},
				{Key: "ethereum_v", Value: sig.EthereumV()},
				{Key: "digest", Value: c.encoding.encode(digest)},
				{Key: "address", Value: addr.String()},
				{Key: "public_key", Value: c.encoding.encode(pub)},
			})
		},
	}
	df.bind(cmd)
	cmd.Flags().StringVar(&keystorePath, "keystore", "", "keystore 文件")
	cmd.Flags().StringVar(&passwordFile, "password-file", "", "从文件读取 keystore 口令")
	cmd.Flags().StringVar(&privateKeyFile, "private-key-file", "", "从文件读取私钥")
	cmd.Flags().StringVar(&scheme, "scheme", "", "输出地址方案: ethereum|bitcoin (默认取配置)")
	return cmd
}

func (c *CLI) verifyCommand() *cobra.Command {
	var (
		df        digestFlags
		signature string
		publicKey string
		address   string
	)
	cmd := &cobra.Command{
		Use:   "verify [message]",
		Short: "验证签名",
		Long: `按公钥或地址验证 65 字节签名。高 S 签名一律拒绝。

验证失败时进程以非零状态退出。

示例：
  keycore verify --signature <sig> --public-key <pub> "转账 1 ETH"
  keycore verify --signature <sig> --address 0x7E5F... --digest <digest>`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (publicKey == "") == (address == "") {
				return errors.New("需要且只能指定 --public-key 或 --address 之一")
			}
			sig, err := c.encoding.decode(signature)
			if err != nil {
				return err
			}
			digest, err := c.resolveDigest(df, args)
			if err != nil {
				return err
			}

			var valid bool
			record := output.Record{}
			if publicKey != "" {
				pub, err := c.encoding.decode(publicKey)
				if err != nil {
					return err
				}
				valid = c.services.Signatures.Verify(pub, digest, sig)
				record = append(record, output.Field{Key: "public_key", Value: c.encoding.encode(pub)})
			} else {
				addr, err := c.services.Addresses.ParseAddress(address)
				if err != nil {
					return err
				}
				valid = c.services.Signatures.VerifyAddress(addr, digest, sig)
				record = append(record, output.Field{Key: "address", Value: addr.String()})
			}
			record = append(output.Record{{Key: "valid", Value: valid}}, record...)

			if err := c.formatter.Print(record); err != nil {
				return err
			}
			if !valid {
				return ErrSignatureInvalid
			}
			return nil
		},
	}
	df.bind(cmd)
	cmd.Flags().StringVar(&signature, "signature", "", "65 字节签名（按 --encoding 解码）")
	cmd.Flags().StringVar(&publicKey, "public-key", "", "签名者公钥")
	cmd.Flags().StringVar(&address, "address", "", "签名者地址")
	_ = cmd.MarkFlagRequired("signature")
	return cmd
}
