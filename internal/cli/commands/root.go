// Package commands 实现 keycore 命令行
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/weisyn/keycore/configs"
	"github.com/weisyn/keycore/internal/app"
	"github.com/weisyn/keycore/internal/app/version"
	configimpl "github.com/weisyn/keycore/internal/config"
	"github.com/weisyn/keycore/internal/cli/output"
	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/kms"
	"github.com/weisyn/keycore/pkg/interfaces/infrastructure/crypto"
	"github.com/weisyn/keycore/pkg/types"
	"github.com/weisyn/keycore/pkg/utils/runtime"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigPath   string // 配置文件
	OutputFormat string // 输出格式
	Encoding     string // 二进制数据编码
	LogLevel     string // 覆盖日志级别
	Silent       bool   // 静默模式
	Metrics      bool   // 结束时输出操作计数
	NoColor      bool
	PasswordEnv  string // 从该环境变量读取口令
}

// skipAppAnnotation 标记不需要启动密钥核心的命令
const skipAppAnnotation = "keycore/skip-app"

// CLI 命令行运行时
type CLI struct {
	flags GlobalFlags

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	prompter   Prompter
	passwords  crypto.PasswordProvider
	appOptions []app.Option

	app       *app.App
	services  app.Services
	formatter *output.Formatter
	encoding  byteEncoding
	registry  *prometheus.Registry
}

// Option CLI 选项
type Option func(*CLI)

// WithIO 替换标准输入输出
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(c *CLI) {
		c.stdin, c.stdout, c.stderr = in, out, errOut
	}
}

// WithPrompter 替换口令输入方式
func WithPrompter(p Prompter) Option {
	return func(c *CLI) { c.prompter = p }
}

// WithPasswordProvider 替换 --password-env 使用的口令来源
func WithPasswordProvider(p crypto.PasswordProvider) Option {
	return func(c *CLI) { c.passwords = p }
}

// WithAppOptions 追加应用装配选项
func WithAppOptions(opts ...app.Option) Option {
	return func(c *CLI) { c.appOptions = append(c.appOptions, opts...) }
}

// New 创建 CLI
func New(opts ...Option) *CLI {
	c := &CLI{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(c)
	}
	if c.prompter == nil {
		c.prompter = newTerminalPrompter(c.stdin, c.stderr)
	}
	if c.passwords == nil {
		c.passwords = kms.NewEnvPasswordProvider(nil)
	}
	return c
}

// Execute 运行命令并返回进程退出码
func Execute() int {
	// 容器内按 cgroup 上限收紧 GC，Argon2 的大块分配不至于触发 OOM
	_, _, _ = runtime.ApplyCgroupMemoryLimit(0.8)

	c := New()
	if err := c.Run(os.Args[1:]); err != nil {
		c.printError(err)
		return 1
	}
	return 0
}

// Run 执行一次命令，结束后总是停止应用
func (c *CLI) Run(args []string) error {
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	err := root.Execute()
	if stopErr := c.shutdown(); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}

func (c *CLI) printError(err error) {
	if c.formatter == nil {
		c.formatter = output.NewFormatter(output.FormatJSON, c.stdout)
		c.formatter.SetLogWriter(c.stderr)
	}
	var cryptoErr *types.CryptoError
	if errors.As(err, &cryptoErr) {
		c.formatter.PrintError(fmt.Errorf("[%s] %w", types.KindOf(err), err))
		return
	}
	c.formatter.PrintError(err)
}

// rootCommand 构建命令树（每次运行新建，标志不跨运行残留）
func (c *CLI) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "keycore",
		Short: "钱包密钥核心命令行",
		Long: `keycore - 钱包机密材料生命周期工具

提供密钥生成与导入、助记词派生、哈希、签名与验证、
对称与非对称加密、口令哈希等离线操作。所有机密输入通过
无回显提示或 --*-file 文件读取，不出现在命令行参数中。`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.flags.Metrics && c.registry != nil {
				return c.printMetrics()
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.ConfigPath, "config", "", "配置文件路径 (默认使用内置配置)")
	pf.StringVarP(&c.flags.OutputFormat, "output", "o", "json", "输出格式: json|pretty|table|text")
	pf.StringVarP(&c.flags.Encoding, "encoding", "e", "hex", "二进制数据编码: hex|base58|base64")
	pf.StringVar(&c.flags.LogLevel, "log-level", "", "覆盖日志级别: debug|info|warn|error")
	pf.BoolVar(&c.flags.Silent, "silent", false, "静默模式 (仅输出结果)")
	pf.BoolVar(&c.flags.Metrics, "metrics", false, "结束时输出操作计数")
	pf.BoolVar(&c.flags.NoColor, "no-color", false, "禁用颜色")
	pf.StringVar(&c.flags.PasswordEnv, "password-env", "", "从指定环境变量读取口令 (优先于提示输入)")

	root.AddCommand(
		c.keyCommand(),
		c.seedCommand(),
		c.hashCommand(),
		c.signCommand(),
		c.verifyCommand(),
		c.encryptCommand(),
		c.decryptCommand(),
		c.passwordCommand(),
		c.versionCommand(),
	)
	return root
}

// setup 解析全局标志并启动应用
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	if c.flags.NoColor {
		pterm.DisableStyling()
	}

	format, err := output.ParseFormat(c.flags.OutputFormat)
	if err != nil {
		return err
	}
	c.formatter = output.NewFormatter(format, c.stdout)
	c.formatter.SetLogWriter(c.stderr)
	c.formatter.SetSilent(c.flags.Silent)

	if c.encoding, err = parseEncoding(c.flags.Encoding); err != nil {
		return err
	}

	if cmd.Annotations[skipAppAnnotation] == "true" {
		return nil
	}

	appConfig, err := c.loadConfig()
	if err != nil {
		return err
	}

	opts := append([]app.Option{app.WithAppConfig(appConfig)}, c.appOptions...)
	if c.flags.Metrics {
		c.registry = prometheus.NewRegistry()
		opts = append(opts, app.WithRegisterer(c.registry))
	}

	c.app, err = app.Start(cmd.Context(), opts...)
	if err != nil {
		return err
	}
	c.services = c.app.Services()
	return nil
}

// loadConfig 读取配置文件并叠加命令行覆盖项
func (c *CLI) loadConfig() (*types.AppConfig, error) {
	var (
		appConfig *types.AppConfig
		err       error
	)
	if c.flags.ConfigPath != "" {
		appConfig, err = configimpl.LoadAppConfig(c.flags.ConfigPath)
	} else {
		appConfig, err = configimpl.ParseAppConfig(configs.GetDefaultConfig())
	}
	if err != nil {
		return nil, err
	}

	if c.flags.LogLevel != "" {
		if appConfig.Log == nil {
			appConfig.Log = &types.UserLogConfig{}
		}
		appConfig.Log.Level = types.StringPtr(c.flags.LogLevel)
	}
	if c.flags.Metrics {
		if appConfig.Crypto == nil {
			appConfig.Crypto = &types.UserCryptoConfig{}
		}
		appConfig.Crypto.EnableMetrics = types.BoolPtr(true)
	}
	return appConfig, nil
}

func (c *CLI) shutdown() error {
	if c.app == nil {
		return nil
	}
	err := c.app.StopWithTimeout()
	c.app = nil
	return err
}

// printMetrics 以表格输出本次运行的操作计数
func (c *CLI) printMetrics() error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("收集指标失败: %w", err)
	}

	rows := [][]string{}
	for _, family := range families {
		if family.GetName() != "keycore_crypto_operations_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			var op, result string
			for _, label := range m.GetLabel() {
				switch label.GetName() {
				case "op":
					op = label.GetValue()
				case "result":
					result = label.GetValue()
				}
			}
			rows = append(rows, []string{op, result, fmt.Sprintf("%.0f", m.GetCounter().GetValue())})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i][0] != rows[j][0] {
			return rows[i][0] < rows[j][0]
		}
		return rows[i][1] < rows[j][1]
	})

	data := append(pterm.TableData{{"op", "result", "count"}}, rows...)
	table, err := pterm.DefaultTable.WithHasHeader(true).WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.stderr, table)
	return err
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "显示版本信息",
		Annotations: map[string]string{skipAppAnnotation: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetBuildInfo()
			return c.formatter.Print(output.Record{
				{Key: "version", Value: info.Version},
				{Key: "build_time", Value: info.BuildTime},
				{Key: "build_env", Value: info.BuildEnv},
				{Key: "go_version", Value: info.GoVersion},
				{Key: "platform", Value: info.GoOS + "/" + info.GoArch},
			})
		},
	}
}
