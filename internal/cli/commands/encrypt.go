package commands

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/weisyn/keycore/internal/cli/output"
	"github.com/weisyn/keycore/pkg/types"
	"github.com/weisyn/keycore/pkg/utils/memzero"
)

// 加密模式
const (
	modePassword  = "password"
	modeKey       = "key"
	modePublicKey = "public-key"
)

func (c *CLI) encryptCommand() *cobra.Command {
	var (
		alg          string
		inFile       string
		keyFile      string
		passwordFile string
		to           string
	)
	cmd := &cobra.Command{
		Use:   "encrypt [plaintext]",
		Short: "加密数据",
		Long: `三种模式：
  口令（默认）      Argon2id 派生密钥 + AEAD，输出自描述信封
  --key-file        32 字节对称密钥直接 AEAD 加密
  --to <公钥>       ECIES 加密给 secp256k1 公钥

输出按 --encoding 编码。

示例：
  keycore encrypt --password-file ./pw "机密备注"
  keycore encrypt --to 02a1... --in ./backup.tar`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyFile != "" && to != "" {
				return errors.New("--key-file 与 --to 不能同时使用")
			}
			plaintext, err := c.readData(args, inFile)
			if err != nil {
				return err
			}
			defer memzero.Wipe(plaintext)

			algorithm := c.services.Options.DefaultAEAD
			if alg != "" {
				if algorithm, err = types.ParseAEADAlgorithm(alg); err != nil {
					return err
				}
			}

			var (
				mode   string
				sealed []byte
			)
			switch {
			case to != "":
				mode = modePublicKey
				pub, err := c.encoding.decode(to)
				if err != nil {
					return err
				}
				if sealed, err = c.services.Encryption.SealToPublicKey(pub, plaintext); err != nil {
					return err
				}
			case keyFile != "":
				mode = modeKey
				text, err := readSecretFile(keyFile)
				if err != nil {
					return err
				}
				key, err := c.decodeSecret(text)
				if err != nil {
					return err
				}
				data, err := c.services.Encryption.Encrypt(algorithm, key, plaintext)
				memzero.Wipe(key)
				if err != nil {
					return err
				}
				if sealed, err = data.MarshalBinary(); err != nil {
					return err
				}
			default:
				mode = modePassword
				password, err := c.readNewPassword(passwordFile)
				if err != nil {
					return err
				}
				sealed, err = c.services.Encryption.EncryptWithPassword(algorithm, password, plaintext)
				memzero.Wipe(password)
				if err != nil {
					return err
				}
			}

			record := output.Record{
				{Key: "ciphertext", Value: c.encoding.encode(sealed)},
				{Key: "mode", Value: mode},
			}
			if mode != modePublicKey {
				record = append(record, output.Field{Key: "algorithm", Value: algorithm.String()})
			}
			return c.formatter.Print(record)
		},
	}
	cmd.Flags().StringVar(&alg, "alg", "", "AEAD 算法: aes-256-gcm|chacha20-poly1305 (默认取配置)")
	cmd.Flags().StringVar(&inFile, "in", "", `明文文件，"-" 为标准输入`)
	cmd.Flags().StringVar(&keyFile, "key-file", "", "32 字节对称密钥文件（按 --encoding 解码）")
	cmd.Flags().StringVar(&passwordFile, "password-file", "", "从文件读取口令")
	cmd.Flags().StringVar(&to, "to", "", "接收方公钥（ECIES）")
	return cmd
}

func (c *CLI) decryptCommand() *cobra.Command {
	var (
		inFile         string
		outFile        string
		keyFile        string
		passwordFile   string
		keystorePath   string
		privateKeyFile string
	)
	cmd := &cobra.Command{
		Use:   "decrypt [ciphertext]",
		Short: "解密数据",
		Long: `解密 encrypt 的输出。模式由标志决定：
  口令（默认）                          口令信封
  --key-file                            对称密钥
  --keystore / --private-key-file       ECIES

任何篡改或错误的密钥/口令都返回认证失败。

示例：
  keycore decrypt --password-file ./pw <ciphertext>
  keycore decrypt --keystore ./alice.json --in ./sealed.txt --out ./backup.tar`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := c.readData(args, inFile)
			if err != nil {
				return err
			}
			sealed, err := c.encoding.decode(string(text))
			if err != nil {
				return err
			}

			var (
				mode      string
				plaintext []byte
			)
			switch {
			case keystorePath != "" || privateKeyFile != "":
				mode = modePublicKey
				key, err := c.loadSigningKey(keystorePath, passwordFile, privateKeyFile)
				if err != nil {
					return err
				}
				plaintext, err = c.services.Encryption.OpenWithPrivateKey(key, sealed)
				key.Destroy()
				if err != nil {
					return err
				}
			case keyFile != "":
				mode = modeKey
				data, err := types.ParseEncryptedData(sealed)
				if err != nil {
					return err
				}
				keyText, err := readSecretFile(keyFile)
				if err != nil {
					return err
				}
				key, err := c.decodeSecret(keyText)
				if err != nil {
					return err
				}
				plaintext, err = c.services.Encryption.Decrypt(key, data)
				memzero.Wipe(key)
				if err != nil {
					return err
				}
			default:
				mode = modePassword
				password, err := c.readPassword(passwordFile, "口令")
				if err != nil {
					return err
				}
				plaintext, err = c.services.Encryption.DecryptWithPassword(password, sealed)
				memzero.Wipe(password)
				if err != nil {
					return err
				}
			}
			defer memzero.Wipe(plaintext)

			record := output.Record{{Key: "mode", Value: mode}}
			switch {
			case outFile != "":
				if err := os.WriteFile(outFile, plaintext, 0o600); err != nil {
					return fmt.Errorf("写入明文失败: %w", err)
				}
				record = append(record, output.Field{Key: "out", Value: outFile})
			case utf8.Valid(plaintext):
				record = append(output.Record{{Key: "plaintext", Value: string(plaintext)}}, record...)
			default:
				record = append(output.Record{{Key: "plaintext", Value: c.encoding.encode(plaintext)}}, record...)
				record = append(record, output.Field{Key: "plaintext_encoding", Value: string(c.encoding)})
			}
			return c.formatter.Print(record)
		},
	}
	cmd.Flags().StringVar(&inFile, "in", "", `密文文件，"-" 为标准输入`)
	cmd.Flags().StringVar(&outFile, "out", "", "明文写入文件（权限 0600）")
	cmd.Flags().StringVar(&keyFile, "key-file", "", "32 字节对称密钥文件")
	cmd.Flags().StringVar(&passwordFile, "password-file", "", "从文件读取口令")
	cmd.Flags().StringVar(&keystorePath, "keystore", "", "ECIES 解密使用的 keystore")
	cmd.Flags().StringVar(&privateKeyFile, "private-key-file", "", "ECIES 解密使用的私钥文件")
	return cmd
}
