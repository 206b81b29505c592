package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/keycore/internal/cli/output"
	"github.com/weisyn/keycore/pkg/types"
	"github.com/weisyn/keycore/pkg/utils/memzero"
)

// seedFlags seed 子命令共用标志
type seedFlags struct {
	words            int
	path             string
	phraseFile       string
	passphraseFile   string
	promptPassphrase bool
	key              keyFlags
}

func (c *CLI) seedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "助记词管理",
		Long:  "生成 BIP39 助记词，按 BIP32/BIP44 路径派生私钥",
	}
	cmd.AddCommand(c.seedNewCommand(), c.seedDeriveCommand())
	return cmd
}

func (c *CLI) seedNewCommand() *cobra.Command {
	var f seedFlags
	cmd := &cobra.Command{
		Use:   "new",
		Short: "生成新的助记词",
		Long: `生成助记词并输出默认路径下的地址。

示例：
  keycore seed new
  keycore seed new --words 24 --keystore ./wallet.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			strength, err := strengthForWords(f.words)
			if err != nil {
				return err
			}
			phrase, err := c.services.Keys.GenerateSeedPhrase(strength)
			if err != nil {
				return err
			}
			defer phrase.Destroy()

			record, err := c.deriveFromPhrase(phrase, f)
			if err != nil {
				return err
			}

			words, err := phrase.Export()
			if err != nil {
				return err
			}
			record = append(output.Record{{Key: "mnemonic", Value: string(words)}}, record...)
			memzero.Wipe(words)

			c.formatter.PrintWarning("请离线抄写并妥善保管助记词，丢失将无法恢复")
			return c.formatter.Print(record)
		},
	}
	cmd.Flags().IntVar(&f.words, "words", 12, "助记词数量: 12|15|18|21|24")
	c.bindDeriveFlags(cmd, &f)
	return cmd
}

func (c *CLI) seedDeriveCommand() *cobra.Command {
	var f seedFlags
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "从助记词派生私钥",
		Long: `从助记词派生指定路径的私钥，输出公钥与地址。

助记词从 --phrase-file 读取，未指定时无回显提示输入。

示例：
  keycore seed derive --path "m/44'/60'/0'/0/1"
  keycore seed derive --phrase-file ./words.txt --passphrase-prompt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := c.readSecret(f.phraseFile, "助记词")
			if err != nil {
				return err
			}
			phrase, err := c.services.Keys.ImportSeedPhrase(text)
			memzero.Wipe(text)
			if err != nil {
				return err
			}
			defer phrase.Destroy()

			record, err := c.deriveFromPhrase(phrase, f)
			if err != nil {
				return err
			}
			return c.formatter.Print(record)
		},
	}
	cmd.Flags().StringVar(&f.phraseFile, "phrase-file", "", "从文件读取助记词")
	c.bindDeriveFlags(cmd, &f)
	cmd.Flags().BoolVar(&f.key.reveal, "reveal", false, "明文输出派生的私钥")
	return cmd
}

func (c *CLI) bindDeriveFlags(cmd *cobra.Command, f *seedFlags) {
	cmd.Flags().StringVar(&f.path, "path", "", "派生路径 (默认取配置)")
	cmd.Flags().StringVar(&f.passphraseFile, "passphrase-file", "", "从文件读取 BIP39 附加口令")
	cmd.Flags().BoolVar(&f.promptPassphrase, "passphrase-prompt", false, "提示输入 BIP39 附加口令")
	cmd.Flags().StringVar(&f.key.scheme, "scheme", "", "地址方案: ethereum|bitcoin (默认取配置)")
	cmd.Flags().StringVar(&f.key.keystorePath, "keystore", "", "将派生的私钥保存为 keystore 文件")
	cmd.Flags().StringVar(&f.key.passwordFile, "password-file", "", "从文件读取 keystore 口令")
}

// deriveFromPhrase 派生私钥并生成输出；按标志写入 keystore
func (c *CLI) deriveFromPhrase(phrase *types.SecureSeedPhrase, f seedFlags) (output.Record, error) {
	var passphrase []byte
	switch {
	case f.passphraseFile != "":
		p, err := readSecretFile(f.passphraseFile)
		if err != nil {
			return nil, err
		}
		passphrase = p
	case f.promptPassphrase:
		p, err := c.prompter.ReadSecret("BIP39 附加口令")
		if err != nil {
			return nil, err
		}
		passphrase = p
	}
	defer memzero.Wipe(passphrase)

	path := f.path
	if path == "" {
		path = c.services.Options.DerivationPath
	}
	key, err := c.services.Keys.DeriveFromSeedPhrase(phrase, passphrase, path)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	scheme, err := c.addressScheme(f.key.scheme)
	if err != nil {
		return nil, err
	}
	record, addr, err := c.describeKey(key, scheme)
	if err != nil {
		return nil, err
	}
	record = append(output.Record{
		{Key: "words", Value: phrase.WordCount()},
		{Key: "path", Value: path},
	}, record...)

	extra, err := c.keyExtras(key, addr, f.key)
	if err != nil {
		return nil, err
	}
	return append(record, extra...), nil
}

// strengthForWords 词数换算为熵位数：words × 32 / 3
func strengthForWords(words int) (int, error) {
	switch words {
	case 12, 15, 18, 21, 24:
		return words * 32 / 3, nil
	}
	return 0, fmt.Errorf("无效的助记词数量: %d，支持 12, 15, 18, 21, 24", words)
}
